package mongostore

import (
	"context"

	"activities-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// excludeCredentials 默认投影：password_hash 不离开存储层
var excludeCredentials = options.FindOne().SetProjection(bson.D{{Key: "password_hash", Value: 0}})

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}}, excludeCredentials)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}}, excludeCredentials)
}

// GetUserWithCredentials 含 password_hash 的查询，仅用于登录时的凭据校验
func (s *Store) GetUserWithCredentials(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) ListUsersByRole(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "password_hash", Value: 0}}).
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{{Key: "role", Value: role}}, opts)
}

// DeleteUserByRole 按 _id 和角色原子删除（角色不匹配视为不存在）
func (s *Store) DeleteUserByRole(ctx context.Context, id string, role model.UserRole) error {
	err := s.col(ColUsers).FindOneAndDelete(ctx, bson.D{
		{Key: "_id", Value: id},
		{Key: "role", Value: role},
	}).Err()
	return wrapError(err)
}
