package storage

import (
	"context"

	"activities-admin/internal/shared/model"
)

// UserStore 用户存储接口
//
// GetUserByEmail / GetUserByID 默认投影排除 password_hash；
// 凭据校验必须使用 GetUserWithCredentials。
// 点查询在文档不存在时返回 (nil, nil)。
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserWithCredentials(ctx context.Context, email string) (*model.User, error)
	ListUsersByRole(ctx context.Context, role model.UserRole) ([]*model.User, error)
	DeleteUserByRole(ctx context.Context, id string, role model.UserRole) error
}

// ActivityStore 活动存储接口
//
// ListActivities 始终按 date 降序返回。
// ReplaceActivity / DeleteActivity 依赖单文档原子操作，
// 目标不存在时返回 ErrNotFound。
type ActivityStore interface {
	CreateActivity(ctx context.Context, activity *model.Activity) error
	GetActivity(ctx context.Context, id string) (*model.Activity, error)
	ListActivities(ctx context.Context) ([]*model.Activity, error)
	ReplaceActivity(ctx context.Context, activity *model.Activity) (*model.Activity, error)
	DeleteActivity(ctx context.Context, id string) error
}

// Store 聚合接口（main 注入用）
type Store interface {
	UserStore
	ActivityStore
	Close() error
}
