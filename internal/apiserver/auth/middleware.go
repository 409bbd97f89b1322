package auth

import (
	"log"
	"net/http"
	"strings"

	"activities-admin/internal/apiserver/httpx"
	"activities-admin/internal/shared/model"
	"activities-admin/internal/shared/storage"
)

// 统一的 401 提示：不区分缺失/非法/过期，避免泄露失败原因
const msgUnauthorized = "not authorized to access this route"

// Middleware 路由级中间件类型
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Protect 认证中间件
//
// 从 Authorization 头提取 Bearer 令牌，校验签名与过期，
// 再按令牌中的用户 ID 解析用户记录并注入 context。
// 任一环节失败均返回相同的 401 信封。
func Protect(cfg Config, store storage.UserStore) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			claims, err := ParseToken(cfg, token)
			if err != nil {
				log.Printf("[auth] token parse error: %v", err)
				httpx.WriteError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			user, err := store.GetUserByID(r.Context(), claims.Subject)
			if err != nil {
				log.Printf("[auth] resolve user %s error: %v", claims.Subject, err)
				httpx.WriteError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			if user == nil {
				httpx.WriteError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			next(w, r.WithContext(WithCurrentUser(r.Context(), user)))
		}
	}
}

// RequireRole 角色检查中间件，组合在 Protect 之后
// 角色不在允许集合内时返回 403
func RequireRole(roles ...model.UserRole) Middleware {
	allowed := make(map[model.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				httpx.WriteError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			if !allowed[user.Role] {
				httpx.WriteError(w, http.StatusForbidden,
					"role "+string(user.Role)+" is not authorized to access this route")
				return
			}
			next(w, r)
		}
	}
}

// extractBearerToken 提取 Bearer 凭据，格式不符返回空串
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return ""
	}
	return parts[1]
}
