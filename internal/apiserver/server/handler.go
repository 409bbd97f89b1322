// Package server HTTP 路由组装
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 将认证与活动处理器挂载到 ServeMux
//   - 按路由组合认证/角色中间件（唯一的授权检查点）
//   - 暴露 /health 与 /metrics
package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"activities-admin/internal/apiserver/activity"
	"activities-admin/internal/apiserver/auth"
	"activities-admin/internal/shared/model"
	"activities-admin/internal/shared/storage"
)

// Handler API 处理器
type Handler struct {
	store    storage.Store
	authCfg  auth.Config
	auth     *auth.Handler
	activity *activity.Handler
	metrics  *Metrics
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.Store, uploader activity.Uploader, authCfg auth.Config) *Handler {
	return &Handler{
		store:    store,
		authCfg:  authCfg,
		auth:     auth.NewHandler(store, authCfg),
		activity: activity.NewHandler(store, uploader),
		metrics:  NewMetrics("api"),
	}
}

// Router 构建路由表
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	protect := auth.Protect(h.authCfg, h.store)
	adminOnly := auth.RequireRole(model.UserRoleAdmin)

	h.auth.RegisterRoutes(mux, protect, adminOnly)
	h.activity.RegisterRoutes(mux, protect, adminOnly)

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return h.metrics.Instrument(mux)
}

// Health 存活探针
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
