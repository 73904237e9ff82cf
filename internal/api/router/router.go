package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kopuraj/SEM-Tracker/config"
	"github.com/Kopuraj/SEM-Tracker/internal/api/handler"
	"github.com/Kopuraj/SEM-Tracker/internal/api/middleware"
	"github.com/Kopuraj/SEM-Tracker/pkg/jwt"
	"github.com/Kopuraj/SEM-Tracker/pkg/redis"
)

// Setup builds the gin engine. rdb may be nil, in which case rate limiting is off.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	r.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window))

	r.GET("/health", health(db))

	v1 := r.Group("/api/v1")
	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr))
	{
		timetables := authorized.Group("/timetables")
		{
			timetables.GET("", h.Timetable.List)
			timetables.POST("", h.Timetable.Create)

			// fixed paths before /:id
			timetables.GET("/day/:day", h.Timetable.ListByDay)
			timetables.GET("/special", h.Timetable.ListSpecial)
			timetables.GET("/date/:date", h.Timetable.ActiveOn)
			timetables.GET("/range", h.Timetable.ActiveBetween)
			timetables.GET("/today", h.Timetable.Today)
			timetables.GET("/week", h.Timetable.Week)
			timetables.GET("/has-class/:date", h.Timetable.HasClassOn)
			timetables.GET("/upcoming", h.Timetable.Upcoming)
			timetables.GET("/export.ics", h.Export.ExportICS)
			timetables.GET("/export.xlsx", h.Export.ExportExcel)
			timetables.POST("/import", h.Timetable.ImportICS)

			timetables.GET("/:id", h.Timetable.GetByID)
			timetables.PUT("/:id", h.Timetable.Update)
			timetables.DELETE("/:id", h.Timetable.Delete)
		}

		subjects := authorized.Group("/subjects")
		{
			subjects.GET("", h.Subject.List)
			subjects.POST("", h.Subject.Create)
			subjects.GET("/:id", h.Subject.GetByID)
			subjects.PUT("/:id", h.Subject.Update)
			subjects.DELETE("/:id", h.Subject.Delete)
		}

		attendance := authorized.Group("/attendance")
		{
			attendance.GET("", h.Attendance.List)
			attendance.POST("", h.Attendance.Create)
			attendance.GET("/summary", h.Attendance.Summary)
			attendance.GET("/eligibility", h.Attendance.Eligibility)
			attendance.GET("/:id", h.Attendance.GetByID)
			attendance.PUT("/:id", h.Attendance.Update)
			attendance.DELETE("/:id", h.Attendance.Delete)
		}

		marks := authorized.Group("/marks")
		{
			marks.GET("", h.Mark.List)
			marks.POST("", h.Mark.Create)
			marks.GET("/progress", h.Mark.Progress)
			marks.GET("/:id", h.Mark.GetByID)
			marks.PUT("/:id", h.Mark.Update)
			marks.DELETE("/:id", h.Mark.Delete)
		}
	}

	return r
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
