package routes

import (
	"github.com/gin-gonic/gin"

	"bus_tracker/internal/middleware"
)

func DriverRoutes(r *gin.Engine, d Dependencies, limiter gin.HandlerFunc) {
	tracking := r.Group("/tracking")
	tracking.Use(d.Auth.RequireRole(middleware.RoleDriver), limiter)
	{
		tracking.POST("/me/location", d.Tracking.ReportMyLocation)
	}

	driver := r.Group("/driver")
	driver.Use(d.Auth.RequireRole(middleware.RoleDriver))
	{
		driver.GET("/me/bus", d.Tracking.MyBus)
	}
}
