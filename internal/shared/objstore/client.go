// Package objstore 封装 MinIO 对象存储客户端
//
// 上传适配器：接收内存中的文件缓冲，写入外部对象存储，
// 返回持久引用（公开 URL + 资源类型）。单次尝试，不重试。
package objstore

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"activities-admin/internal/config"
)

// 资源类型（决定对象的目标前缀）
const (
	ResourceTypeImage = "image"
	ResourceTypeVideo = "video"
)

// uploadFolder 所有媒体对象的公共前缀
const uploadFolder = "activities"

// UploadFile 待上传的内存文件
type UploadFile struct {
	Data        []byte
	ContentType string
	Name        string // 原始文件名，仅用于扩展名
}

// Object 上传结果：持久引用
type Object struct {
	URL          string
	ResourceType string
}

// Client MinIO 客户端封装
type Client struct {
	mc       *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

// NewClient 创建 MinIO 客户端
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access_key and secret_key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "activities-admin"
	}

	return &Client{mc: mc, bucket: bucket, endpoint: cfg.Endpoint, useSSL: cfg.UseSSL}, nil
}

// EnsureBucket 确保 bucket 存在（启动时调用）
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("[objstore] Created bucket: %s", c.bucket)
	}
	return nil
}

// Upload 上传单个文件并返回持久引用
// 上游错误原样包装透出，由调用方决定整批失败语义
func (c *Client) Upload(ctx context.Context, file UploadFile) (Object, error) {
	resourceType := ResourceTypeFor(file.ContentType)
	key := objectKey(resourceType, file.Name)

	_, err := c.mc.PutObject(ctx, c.bucket, key,
		bytes.NewReader(file.Data), int64(len(file.Data)),
		minio.PutObjectOptions{ContentType: file.ContentType})
	if err != nil {
		return Object{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return Object{URL: c.publicURL(key), ResourceType: resourceType}, nil
}

// ResourceTypeFor 按 MIME 前缀分类资源类型（video/* → video，其余 → image）
func ResourceTypeFor(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return ResourceTypeVideo
	}
	return ResourceTypeImage
}

// objectKey 生成对象键：activities/<type>/<12hex><ext>
func objectKey(resourceType, originalName string) string {
	b := make([]byte, 6)
	rand.Read(b)
	ext := strings.ToLower(path.Ext(originalName))
	return fmt.Sprintf("%s/%s/%s%s", uploadFolder, resourceType, hex.EncodeToString(b), ext)
}

// publicURL 构造 path-style 公开访问 URL
func (c *Client) publicURL(key string) string {
	scheme := "http"
	if c.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, c.endpoint, c.bucket, key)
}
