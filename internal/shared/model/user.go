package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// Valid 角色是否为已知枚举值
func (r UserRole) Valid() bool {
	return r == UserRoleAdmin || r == UserRoleUser
}

// User 用户账户
//
// PasswordHash 永远不出现在 JSON 响应中；存储层默认投影同样排除该字段，
// 只有凭据校验（登录）通过显式方法读取。
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	Role         UserRole  `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
