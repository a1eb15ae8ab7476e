// Package httpapi HTTP 接口（路径与前端保持一致）
package httpapi

import (
	"net/http"
	"time"

	"crowdguard/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler 全部 HTTP 处理函数
type Handler struct {
	svcs   *service.Services
	logger *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(svcs *service.Services, logger *zap.Logger) *Handler {
	return &Handler{svcs: svcs, logger: logger}
}

// NewRouter 创建 chi 路由：中间件栈 + 全部路由
func NewRouter(h *Handler, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggerMiddleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(MetricsMiddleware)

	// 允许所有来源（仪表盘前端单独部署）
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	router.Get("/api/health", h.Health)
	router.Get("/api/logs", h.ListLogs)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Post("/login", h.Login)

	router.Get("/users", h.ListUsers)
	router.Post("/users", h.CreateUser)
	router.Get("/users/{userID}", h.GetUser)
	router.Put("/users/{userID}", h.UpdateUser)
	router.Delete("/users/{userID}", h.DeleteUser)

	router.Get("/zones", h.ListZones)
	router.Post("/zones", h.CreateZone)
	router.Get("/zones/{zoneID}", h.GetZone)
	router.Put("/zones/{zoneID}", h.UpdateZone)
	router.Delete("/zones/{zoneID}", h.DeleteZone)

	router.Get("/crowd-data", h.ListCrowdData)
	router.Post("/crowd-data", h.AddCrowdData)
	router.Get("/crowd-data/latest", h.LatestCrowdData)
	router.Get("/crowd-data/export", h.ExportCrowdData)

	router.Get("/alerts", h.ListAlerts)
	router.Post("/alerts", h.CreateAlert)
	router.Get("/alerts/{alertID}", h.GetAlert)
	router.Put("/alerts/{alertID}", h.UpdateAlert)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return router
}

// LoggerMiddleware 记录每个 HTTP 请求
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("HTTP request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
