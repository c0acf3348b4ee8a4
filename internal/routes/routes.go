package routes

import (
	"io"
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"bus_tracker/internal/controllers"
	"bus_tracker/internal/middleware"
)

// Dependencies is everything the HTTP layer is wired with.
type Dependencies struct {
	Auth           *middleware.JWTAuth
	Tracking       *controllers.TrackingController
	Buses          *controllers.BusController
	Subscriptions  *controllers.SubscriptionController
	Notifications  *controllers.NotificationController
	WebSocket      *controllers.WebSocketController
	DB             *gorm.DB
	AllowedOrigins []string
	RateLimit      rate.Limit
	RateBurst      int
	LogWriter      io.Writer
}

func SetupRouter(d Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.LogWriter != nil {
		r.Use(ginlog.SetLogger(ginlog.WithWriter(d.LogWriter), ginlog.WithSkipPath([]string{"/healthz"})))
	}
	r.Use(middleware.CORS(d.AllowedOrigins))

	limiter := middleware.RateLimiter(d.RateLimit, d.RateBurst)

	HealthRoutes(r, d.DB)
	DriverRoutes(r, d, limiter)
	AppRoutes(r, d, limiter)
	WebSocketRoutes(r, d)

	return r
}

func HealthRoutes(r *gin.Engine, db *gorm.DB) {
	r.GET("/healthz", func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
