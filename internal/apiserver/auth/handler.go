package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"activities-admin/internal/apiserver/httpx"
	"activities-admin/internal/shared/model"
	"activities-admin/internal/shared/storage"
)

// tokenCookieName token cookie 名称
const tokenCookieName = "token"

// Handler 认证 HTTP 处理器
type Handler struct {
	store storage.UserStore
	cfg   Config
}

// NewHandler 创建认证处理器
func NewHandler(store storage.UserStore, cfg Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
// protect/adminOnly 由调用方组合注入，角色检查只存在于中间件这一处
func (h *Handler) RegisterRoutes(mux *http.ServeMux, protect, adminOnly Middleware) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/auth/me", protect(h.Me))
	mux.HandleFunc("GET /api/auth/logout", protect(h.Logout))

	// 管理员管理（无公开自助注册）
	mux.HandleFunc("POST /api/auth/register-admin", protect(adminOnly(h.RegisterAdmin)))
	mux.HandleFunc("GET /api/auth/admins", protect(adminOnly(h.ListAdmins)))
	mux.HandleFunc("DELETE /api/auth/admins/{id}", protect(adminOnly(h.DeleteAdmin)))
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse 登录响应：信封中直接携带 token
type tokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// adminSummary 管理员列表项
type adminSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================================================
// Handlers
// ============================================================================

// Login 登录
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "please provide an email and password")
		return
	}

	// 凭据校验是唯一读取 password_hash 的路径
	user, err := h.store.GetUserWithCredentials(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.login] GetUserWithCredentials error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// 未知邮箱与错误密码返回同一消息
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	log.Printf("[auth] User logged in: %s", user.Email)
	h.sendTokenResponse(w, http.StatusOK, user)
}

// Me 获取当前用户
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	httpx.WriteData(w, http.StatusOK, CurrentUser(r.Context()))
}

// Logout 登出：使 cookie 立即过期
// GET /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
	})
	httpx.WriteData(w, http.StatusOK, struct{}{})
}

// RegisterAdmin 注册管理员（仅管理员可调用，响应不含令牌）
// POST /api/auth/register-admin
func (h *Handler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req registerAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	if !isValidEmail(req.Email) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid email format")
		return
	}

	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.register-admin] GetUserByEmail error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		httpx.WriteError(w, http.StatusBadRequest, "email is already registered")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register-admin] HashPassword error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := &model.User{
		ID:           generateID(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.UserRoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			httpx.WriteError(w, http.StatusBadRequest, "email is already registered")
			return
		}
		log.Printf("[auth.register-admin] CreateUser error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	log.Printf("[auth] Admin registered: %s (%s)", user.Email, user.ID)
	httpx.WriteData(w, http.StatusCreated, adminSummary{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// ListAdmins 列出管理员
// GET /api/auth/admins
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.store.ListUsersByRole(r.Context(), model.UserRoleAdmin)
	if err != nil {
		log.Printf("[auth.admins] ListUsersByRole error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list admins")
		return
	}

	out := make([]adminSummary, 0, len(admins))
	for _, u := range admins {
		out = append(out, adminSummary{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt})
	}
	httpx.WriteData(w, http.StatusOK, out)
}

// DeleteAdmin 删除管理员（禁止删除自己）
// DELETE /api/auth/admins/{id}
func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	current := CurrentUser(r.Context())

	if current != nil && current.ID == id {
		httpx.WriteError(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}

	// 角色约束在删除条件内：非 admin 的 id 视为不存在
	if err := h.store.DeleteUserByRole(r.Context(), id, model.UserRoleAdmin); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "admin not found")
			return
		}
		log.Printf("[auth.admins] DeleteUserByRole error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to delete admin")
		return
	}

	log.Printf("[auth] Admin deleted: %s (by %s)", id, current.ID)
	httpx.WriteData(w, http.StatusOK, struct{}{})
}

// sendTokenResponse 签发令牌：HTTP-only cookie + 响应体双通道
func (h *Handler) sendTokenResponse(w http.ResponseWriter, status int, user *model.User) {
	token, _, err := GenerateToken(h.cfg, user.ID)
	if err != nil {
		log.Printf("[auth] GenerateToken error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(h.cfg.CookieExpireDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(tokenResponse{Success: true, Token: token})
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用）
// 如果配置了 adminEmail 且数据库中不存在该用户，则自动创建
func EnsureAdminUser(store storage.UserStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", adminEmail, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user := &model.User{
		ID:           generateID(),
		Name:         "Admin",
		Email:        adminEmail,
		PasswordHash: hash,
		Role:         model.UserRoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminEmail, user.ID)
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
