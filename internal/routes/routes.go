package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"staffhub-backend/internal/attendance"
	"staffhub-backend/internal/config"
	"staffhub-backend/internal/handlers"
	"staffhub-backend/internal/middleware"
)

type Deps struct {
	DB       *gorm.DB
	Cfg      config.Config
	Service  *attendance.Service
	Geocoder attendance.Geocoder
}

func Register(router *gin.Engine, deps Deps) {
	router.Use(corsMiddleware(deps.Cfg.AllowedOriginsRaw))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "staffhub-backend"})
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Cfg)
	employeeHandler := handlers.NewEmployeeHandler(deps.DB)
	attendanceHandler := handlers.NewAttendanceHandler(deps.DB, deps.Service)
	assignmentHandler := handlers.NewAssignmentHandler(deps.DB, deps.Geocoder)
	vehicleHandler := handlers.NewVehicleHandler(deps.DB)
	notificationHandler := handlers.NewNotificationHandler(deps.DB)
	dashboardHandler := handlers.NewDashboardHandler(deps.DB)
	settingsHandler := handlers.NewSettingsHandler(deps.DB)

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
		api.POST("/auth/logout", authHandler.Logout)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthRequired(deps.Cfg.JwtSecret))
	{
		protected.GET("/me", authHandler.Me)
		protected.PUT("/me/password", authHandler.ChangePassword)
		protected.GET("/dashboard", middleware.RequireAnyRole("admin", "manager"), dashboardHandler.Get)

		protected.GET("/employees", employeeHandler.List)
		protected.GET("/employees/by-display/:displayId", middleware.RequireAnyRole("admin", "manager"), employeeHandler.Resolve)
		protected.POST("/employees", middleware.RequireAnyRole("admin", "manager"), employeeHandler.Create)
		protected.PUT("/employees/:id", middleware.RequireAnyRole("admin", "manager"), employeeHandler.Update)
		protected.DELETE("/employees/:id", middleware.RequireAnyRole("admin"), employeeHandler.Delete)
		protected.POST("/employees/:id/user", middleware.RequireAnyRole("admin", "manager"), employeeHandler.CreateUser)

		protected.GET("/attendance", middleware.RequireAnyRole("admin", "manager", "employee"), attendanceHandler.List)
		protected.POST("/attendance/daily/clock-in", middleware.RequireAnyRole("admin", "manager", "employee"), attendanceHandler.DailyClockIn)
		protected.POST("/attendance/daily/clock-out", middleware.RequireAnyRole("admin", "manager", "employee"), attendanceHandler.DailyClockOut)
		protected.GET("/attendance/daily/status", middleware.RequireAnyRole("admin", "manager", "employee"), attendanceHandler.Status)
		protected.GET("/attendance/attempts", middleware.RequireAnyRole("admin", "manager", "employee"), attendanceHandler.Attempts)
		protected.POST("/attendance/submit", middleware.RequireAnyRole("admin", "manager", "employee"), attendanceHandler.Submit)
		protected.GET("/attendance/pending", middleware.RequireAnyRole("admin", "manager"), attendanceHandler.Pending)
		protected.PATCH("/attendance/:id/approve", middleware.RequireAnyRole("admin", "manager"), attendanceHandler.Approve)
		protected.PATCH("/attendance/:id/reject", middleware.RequireAnyRole("admin", "manager"), attendanceHandler.Reject)
		protected.PATCH("/attendance/:id/re-enable", middleware.RequireAnyRole("admin", "manager"), attendanceHandler.ReEnable)

		protected.GET("/assignments", middleware.RequireAnyRole("admin", "manager"), assignmentHandler.List)
		protected.GET("/assignments/mine", middleware.RequireAnyRole("employee"), assignmentHandler.Mine)
		protected.PUT("/assignments", middleware.RequireAnyRole("admin", "manager"), assignmentHandler.Upsert)
		protected.DELETE("/assignments/:id", middleware.RequireAnyRole("admin", "manager"), assignmentHandler.Delete)

		protected.GET("/vehicles", middleware.RequireAnyRole("admin", "manager", "employee"), vehicleHandler.List)
		protected.POST("/vehicles", middleware.RequireAnyRole("admin", "manager"), vehicleHandler.Create)
		protected.POST("/vehicles/:id/assign", middleware.RequireAnyRole("admin", "manager"), vehicleHandler.Assign)
		protected.POST("/vehicles/:id/unassign", middleware.RequireAnyRole("admin", "manager"), vehicleHandler.Unassign)
		protected.DELETE("/vehicles/:id", middleware.RequireAnyRole("admin"), vehicleHandler.Delete)

		protected.GET("/notifications", middleware.RequireAnyRole("admin", "manager"), notificationHandler.List)
		protected.PATCH("/notifications/:id/read", middleware.RequireAnyRole("admin", "manager"), notificationHandler.MarkRead)
		protected.DELETE("/notifications/:id", middleware.RequireAnyRole("admin", "manager"), notificationHandler.Delete)

		protected.GET("/settings/attendance", middleware.RequireAnyRole("admin", "manager"), settingsHandler.GetPolicy)
		protected.PUT("/settings/attendance", middleware.RequireAnyRole("admin"), settingsHandler.UpdatePolicy)
	}
}

func corsMiddleware(allowed string) gin.HandlerFunc {
	origins := []string{}
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}

	allowAll := len(origins) == 0

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowedOrigin := range origins {
				if origin == allowedOrigin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					c.Writer.Header().Set("Vary", "Origin")
					break
				}
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
