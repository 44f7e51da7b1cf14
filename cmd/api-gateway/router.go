package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/handler"
	"github.com/noah-isme/sma-academic-core/internal/middleware"
	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/config"
	"github.com/noah-isme/sma-academic-core/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-academic-core/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-academic-core/pkg/middleware/requestid"
)

type handlers struct {
	schedule   *handler.ScheduleHandler
	section    *handler.SectionHandler
	enrollment *handler.EnrollmentHandler
	period     *handler.PeriodHandler
	score      *handler.ScoreHandler
	task       *handler.TaskHandler
	attendance *handler.AttendanceHandler
	export     *handler.ExportHandler
	auth       *handler.AuthHandler
	probes     *handler.MetricsHandler
}

type routerDeps struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *service.MetricsService
	tokens   middleware.TokenValidator
	handlers handlers
}

func newRouter(deps routerDeps) *gin.Engine {
	cfg := deps.cfg
	h := deps.handlers

	r := gin.New()
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.logger, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(deps.metrics))
	}
	r.Use(gin.Recovery())

	r.GET("/health", h.probes.Health)
	r.GET("/ready", h.probes.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.probes.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	// Signed download links carry their own authorisation.
	api.GET("/exports/:token", h.export.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.tokens))

	can := middleware.RequireCapability
	self := middleware.StudentSelfOnly("studentId")

	secured.GET("/auth/me", h.auth.Me)

	periods := secured.Group("/periods")
	periods.GET("", can(models.CapScheduleRead), h.period.List)
	periods.GET("/current", can(models.CapScheduleRead), h.period.Current)
	periods.GET("/:id", can(models.CapScheduleRead), h.period.Get)
	periods.POST("", can(models.CapSectionWrite), h.period.Create)
	periods.POST("/:id/current", can(models.CapSectionWrite), h.period.SetCurrent)
	periods.GET("/:id/terms", can(models.CapScheduleRead), h.period.ListTerms)
	periods.POST("/:id/terms", can(models.CapSectionWrite), h.period.CreateTerm)
	secured.GET("/terms/:termId", can(models.CapScheduleRead), h.period.GetTerm)

	sections := secured.Group("/sections")
	sections.GET("", can(models.CapScheduleRead), h.section.List)
	sections.GET("/:id", can(models.CapScheduleRead), h.section.Get)
	sections.POST("", can(models.CapSectionWrite), h.section.Create)
	sections.PUT("/:id/capacity", can(models.CapSectionWrite), h.section.UpdateCapacity)
	sections.GET("/:id/timetable", can(models.CapScheduleRead), h.schedule.SectionTimetable)
	sections.GET("/:id/timetable/today", can(models.CapScheduleRead), h.schedule.TodaySlots)
	sections.GET("/:id/attendance", can(models.CapAttendanceWrite), h.attendance.List)
	sections.GET("/:id/attendance/report", can(models.CapAttendanceWrite), h.attendance.SectionReport)
	sections.GET("/:id/attendance/history", can(models.CapAttendanceWrite), h.attendance.History)
	sections.POST("/:id/attendance/export", can(models.CapAttendanceWrite), h.export.SectionAttendance)

	offerings := secured.Group("/offerings")
	offerings.GET("", can(models.CapScheduleRead), h.schedule.ListOfferings)
	offerings.GET("/:id", can(models.CapScheduleRead), h.schedule.GetOffering)
	offerings.POST("", can(models.CapScheduleWrite), h.schedule.CreateOffering)
	offerings.PATCH("/:id/active", can(models.CapScheduleWrite), h.schedule.SetOfferingActive)

	slots := secured.Group("/time-slots")
	slots.GET("", can(models.CapScheduleRead), h.schedule.ListSlots)
	slots.GET("/:id", can(models.CapScheduleRead), h.schedule.GetSlot)
	slots.POST("", can(models.CapScheduleWrite), h.schedule.CreateSlot)
	slots.POST("/bulk", can(models.CapScheduleWrite), h.schedule.BulkCreateSlots)
	slots.PUT("/:id", can(models.CapScheduleWrite), h.schedule.UpdateSlot)
	slots.DELETE("/:id", can(models.CapScheduleWrite), h.schedule.DeleteSlot)
	secured.GET("/teachers/:teacherId/timetable", can(models.CapScheduleRead), h.schedule.TeacherTimetable)

	enrollments := secured.Group("/enrollments")
	enrollments.GET("", can(models.CapEnrollmentRead), h.enrollment.List)
	enrollments.GET("/:id", can(models.CapEnrollmentRead), h.enrollment.Get)
	enrollments.POST("", can(models.CapEnrollmentWrite), h.enrollment.Create)
	enrollments.PATCH("/:id/status", can(models.CapEnrollmentWrite), h.enrollment.ChangeStatus)
	enrollments.POST("/:id/transfer", can(models.CapEnrollmentWrite), h.enrollment.Transfer)
	enrollments.DELETE("/:id", can(models.CapEnrollmentWrite), h.enrollment.Delete)

	scores := secured.Group("/scores")
	scores.GET("", can(models.CapScoreWrite), h.score.List)
	scores.PUT("", can(models.CapScoreWrite), h.score.Upsert)
	scores.POST("/bulk", can(models.CapScoreWrite), h.score.BulkUpsert)
	scores.POST("/finalize", can(models.CapScoreFinalize), h.score.Finalize)
	scores.DELETE("/:id", can(models.CapScoreWrite), h.score.Delete)
	secured.GET("/manual-scores", can(models.CapScoreWrite), h.score.ListManualScores)
	secured.POST("/manual-scores", can(models.CapScoreWrite), h.score.CreateManualScore)

	tasks := secured.Group("/tasks")
	tasks.GET("", can(models.CapScoreWrite), h.task.List)
	tasks.GET("/:id", can(models.CapScoreWrite), h.task.Get)
	tasks.POST("", can(models.CapScoreWrite), h.task.Create)
	tasks.GET("/:id/submissions", can(models.CapScoreWrite), h.task.ListSubmissions)
	tasks.PUT("/:id/submissions", can(models.CapScoreWrite), h.task.GradeSubmission)

	secured.POST("/attendance", can(models.CapAttendanceWrite), h.attendance.Record)

	students := secured.Group("/students/:studentId")
	students.Use(can(models.CapReportRead), self)
	students.GET("/enrollments", h.enrollment.StudentHistory)
	students.GET("/attendance", h.attendance.StudentStats)
	students.GET("/report-card", h.score.ReportCard)
	students.POST("/report-card/export", h.export.ReportCard)
	students.GET("/term-grade", h.score.TermGrade)
	students.GET("/period-grade", h.score.PeriodGrade)

	return r
}
