package routes

import (
	"github.com/gin-gonic/gin"
)

func WebSocketRoutes(r *gin.Engine, d Dependencies) {
	r.GET("/ws", d.WebSocket.HandleWebSocket)
}
