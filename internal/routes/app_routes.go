package routes

import (
	"github.com/gin-gonic/gin"
)

// AppRoutes are the rider app endpoints. Any authenticated member of the organization may
// call them.
func AppRoutes(r *gin.Engine, d Dependencies, limiter gin.HandlerFunc) {
	app := r.Group("/app")
	app.Use(d.Auth.RequireAuth(), limiter)
	{
		app.POST("/subscriptions", d.Subscriptions.Subscribe)
		app.GET("/subscriptions", d.Subscriptions.List)
		app.DELETE("/subscriptions/:subscriptionId", d.Subscriptions.Unsubscribe)

		app.PUT("/me/push-token", d.Notifications.SetPushToken)
		app.GET("/notifications", d.Notifications.List)
		app.PATCH("/notifications/:id/read", d.Notifications.MarkRead)

		app.GET("/buses/:busId/live", d.Buses.Live)
		app.GET("/buses/:busId/path", d.Buses.Path)
	}
}
