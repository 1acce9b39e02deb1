package router

import (
	"net/http"

	"github.com/blues/civicops/internal/auth"
	"github.com/blues/civicops/internal/config"
	"github.com/blues/civicops/internal/handler"
	"github.com/blues/civicops/internal/logic"
	"github.com/gin-gonic/gin"
)

func Setup(cfg *config.Config, services *logic.Services, sessions *auth.SessionStore) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(requestLogger())
	r.Use(recovery())
	r.Use(corsMiddleware(cfg.Server.CORSOrigins))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "civicops",
		})
	})

	authHandler := handler.NewAuthHandler(sessions, cfg.Auth.CookieName, cfg.Server.Mode == gin.ReleaseMode)
	scheduleHandler := handler.NewScheduleHandler(services.Schedules)
	taskHandler := handler.NewTaskHandler(services.Tasks)
	approvalHandler := handler.NewApprovalHandler(services.Approvals)

	requireSession := auth.Middleware(sessions, cfg.Auth.CookieName)
	can := auth.RequireCapability

	// API版本组
	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/logout", authHandler.Logout)

		authed := v1.Group("", requireSession)
		authed.GET("/auth/me", authHandler.Me)

		// 计划相关路由
		projects := authed.Group("/projects/:projectId/schedules")
		{
			projects.POST("", can(auth.CapScheduleWrite), scheduleHandler.CreateSchedule)
			projects.GET("", can(auth.CapScheduleRead), scheduleHandler.ListSchedules)
			projects.GET("/current", can(auth.CapScheduleRead), scheduleHandler.GetCurrentSchedule)
			projects.DELETE("/current", can(auth.CapScheduleDelete), scheduleHandler.DeleteCurrentSchedule)
			projects.PUT("/:scheduleId", can(auth.CapScheduleWrite), scheduleHandler.UpdateSchedule)
		}

		// 任务相关路由
		tasks := authed.Group("/schedules/:scheduleId/tasks")
		{
			tasks.GET("", can(auth.CapScheduleRead), taskHandler.GetScheduleTasks)
			tasks.GET("/hierarchy", can(auth.CapScheduleRead), taskHandler.GetTaskHierarchy)
			tasks.POST("/bulk", can(auth.CapScheduleWrite), taskHandler.SaveBulkTasks)
			tasks.PATCH("/:taskId", can(auth.CapScheduleWrite), taskHandler.UpdateTask)
		}

		// 审批相关路由
		approvals := authed.Group("/approvals")
		{
			approvals.GET("/pending", can(auth.CapApprovalRead), approvalHandler.GetPendingApprovals)
			approvals.GET("/:id", can(auth.CapApprovalRead), approvalHandler.GetApproval)
			approvals.POST("/:id/action", can(auth.CapApprovalAct), approvalHandler.ActOnApproval)
		}
	}

	return r
}

// CORS中间件，只有白名单内的来源可以携带 Cookie
func corsMiddleware(allowed []string) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		origins[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := origins[origin]; ok && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
