package mongostore

import (
	"context"
	"time"

	"activities-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ActivityStore
// ============================================================================

func (s *Store) CreateActivity(ctx context.Context, activity *model.Activity) error {
	return insertOne(ctx, s.col(ColActivities), activity)
}

func (s *Store) GetActivity(ctx context.Context, id string) (*model.Activity, error) {
	return findOne[model.Activity](ctx, s.col(ColActivities), bson.D{{Key: "_id", Value: id}})
}

// ListActivities 按 date 降序返回全部活动
func (s *Store) ListActivities(ctx context.Context) ([]*model.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return findMany[model.Activity](ctx, s.col(ColActivities), bson.D{}, opts)
}

// ReplaceActivity 按 _id 原子更新可变字段并返回更新后的文档
// 目标不存在时返回 storage.ErrNotFound
func (s *Store) ReplaceActivity(ctx context.Context, activity *model.Activity) (*model.Activity, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: activity.Title},
		{Key: "description", Value: activity.Description},
		{Key: "date", Value: activity.Date},
		{Key: "images", Value: activity.Images},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated model.Activity
	err := s.col(ColActivities).
		FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: activity.ID}}, update, opts).
		Decode(&updated)
	if err != nil {
		return nil, wrapError(err)
	}
	return &updated, nil
}

// DeleteActivity 按 _id 原子删除
func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	err := s.col(ColActivities).FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Err()
	return wrapError(err)
}
