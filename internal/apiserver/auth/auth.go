// Package auth 用户认证：JWT 令牌管理、密码哈希、HTTP 中间件
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"activities-admin/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const ctxKeyCurrentUser contextKey = "current_user"

// Config 认证配置
type Config struct {
	JWTSecret        string        // 签名密钥，缺失视为部署错误
	TokenTTL         time.Duration // 令牌有效期
	CookieExpireDays int           // token cookie 有效天数
	SecureCookie     bool          // 仅生产环境置 Secure
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明（subject 即用户 ID）
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken 签发令牌，返回令牌与过期时间
// 仅在签名密钥缺失时失败（属配置错误，启动阶段就应拦截）
func GenerateToken(cfg Config, userID string) (string, time.Time, error) {
	if cfg.JWTSecret == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is not configured")
	}

	expires := time.Now().Add(cfg.TokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseToken 解析并验证 JWT（签名 + 过期）
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithCurrentUser 将认证用户注入 context
func WithCurrentUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKeyCurrentUser, user)
}

// CurrentUser 从 context 获取认证用户，未认证时返回 nil
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKeyCurrentUser).(*model.User)
	return user
}
