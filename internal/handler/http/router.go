package http

import (
	"log/slog"
	"os"

	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/handler/http/middleware"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RouterConfig carries the cross-cutting settings of the HTTP surface
type RouterConfig struct {
	Env            string
	Version        string
	AllowedOrigins []string
	RateLimit      rate.Limit
	RateBurst      int
	// Redis backs idempotent punch replays; nil disables them
	Redis *redis.Client
}

type Handlers struct {
	Auth         AuthHandler
	Workspace    WorkspaceHandler
	User         UserHandler
	Location     LocationHandler
	Attendance   AttendanceHandler
	Schedule     ScheduleHandler
	Request      RequestHandler
	Report       ReportHandler
	Notification NotificationHandler
	File         *FileHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "geopoint-backend"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"Content-Disposition", middleware.ReplayedHeader},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RealIP)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	publicLimiter := middleware.NewKeyedLimiter(cfg.RateLimit, cfg.RateBurst)
	userLimiter := middleware.NewKeyedLimiter(cfg.RateLimit, cfg.RateBurst)

	r.Get("/uploads/*", h.File.Serve)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(publicLimiter))
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})

		// EventSource cannot send the Authorization header
		r.Get("/events/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.RateLimitByUser(userLimiter))

			r.Post("/events/token", h.Auth.SSEToken)

			r.Route("/workspace", func(r chi.Router) {
				r.Get("/", h.Workspace.GetCurrent)
				r.With(middleware.RequireAdmin).Put("/", h.Workspace.Update)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", h.User.Me)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionUserManage))
					r.Get("/", h.User.List)
					r.Post("/", h.User.Create)
					r.Get("/{id}", h.User.Get)
					r.Put("/{id}", h.User.Update)
					r.Delete("/{id}", h.User.Delete)
				})
			})

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", h.Location.List)
				r.Get("/code/{code}", h.Location.GetByCode)
				r.Get("/{id}", h.Location.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLocationManage))
					r.Post("/", h.Location.Create)
					r.Put("/{id}", h.Location.Update)
					r.Delete("/{id}", h.Location.Delete)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.Idempotency(cfg.Redis)).Post("/punch", h.Attendance.Punch)
				r.Get("/status", h.Attendance.Status)
				r.Get("/my", h.Attendance.MyRecords)

				r.With(middleware.RequirePermission(user.PermissionAttendanceViewAll)).Get("/", h.Attendance.List)
				r.With(middleware.RequirePermission(user.PermissionAttendanceDelete)).Delete("/{id}", h.Attendance.Delete)
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionScheduleManage))

				r.Route("/shifts", func(r chi.Router) {
					r.Get("/", h.Schedule.ListShifts)
					r.Post("/", h.Schedule.CreateShift)
					r.Put("/{id}", h.Schedule.UpdateShift)
					r.Delete("/{id}", h.Schedule.DeleteShift)
				})

				r.Get("/", h.Schedule.ListWorkSchedules)
				r.Post("/", h.Schedule.CreateWorkSchedule)
				r.Get("/{id}", h.Schedule.GetWorkSchedule)
				r.Put("/{id}", h.Schedule.UpdateWorkSchedule)
				r.Delete("/{id}", h.Schedule.DeleteWorkSchedule)
			})

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", h.Request.Create)
				r.Get("/my", h.Request.ListMine)

				r.With(middleware.RequirePermission(user.PermissionRequestViewAll)).Get("/", h.Request.List)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionRequestDecide))
					r.Post("/{id}/approve", h.Request.Approve)
					r.Post("/{id}/reject", h.Request.Reject)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionReportsView))
				r.Get("/overtime", h.Report.Overtime)
				r.Get("/overtime/export", h.Report.ExportOvertime)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Get("/unread-count", h.Notification.UnreadCount)
				r.Post("/read", h.Notification.MarkAsRead)
				r.Post("/read-all", h.Notification.MarkAllAsRead)
				r.Delete("/{id}", h.Notification.Delete)
			})
		})
	})
	return r
}
