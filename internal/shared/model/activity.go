package model

import "time"

// DefaultImageAlt 图片 alt 文本缺省值
const DefaultImageAlt = "Activity image"

// Image 已上传媒体引用（嵌入在 Activity.Images 中，非独立实体）
type Image struct {
	URL string `json:"url" bson:"url"`
	Alt string `json:"alt" bson:"alt"`
}

// Activity 活动记录
//
// Images 为有序序列，顺序与上传时的文件顺序一致。
// 更新时如携带新文件则整体替换，否则由调用方通过 existingImages 原样回传。
type Activity struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Date        time.Time `json:"date" bson:"date"`
	Images      []Image   `json:"images" bson:"images"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// NormalizeImages 为缺失的 alt 填充缺省值，nil 归一为空切片
func NormalizeImages(images []Image) []Image {
	if images == nil {
		return []Image{}
	}
	for i := range images {
		if images[i].Alt == "" {
			images[i].Alt = DefaultImageAlt
		}
	}
	return images
}
