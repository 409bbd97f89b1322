// Package activity 活动领域 - HTTP 处理
//
// 创建/更新接受 multipart 表单（字段 images，最多 5 个文件），
// 文件并发上传到对象存储，全部成功后才持久化记录（all-or-nothing）。
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"activities-admin/internal/apiserver/auth"
	"activities-admin/internal/apiserver/httpx"
	"activities-admin/internal/shared/model"
	"activities-admin/internal/shared/objstore"
	"activities-admin/internal/shared/storage"
)

// Uploader 上传适配器接口
type Uploader interface {
	Upload(ctx context.Context, file objstore.UploadFile) (objstore.Object, error)
}

// Handler 活动领域 HTTP 处理器
type Handler struct {
	store    storage.ActivityStore
	uploader Uploader
}

// NewHandler 创建活动处理器
func NewHandler(store storage.ActivityStore, uploader Uploader) *Handler {
	return &Handler{store: store, uploader: uploader}
}

// RegisterRoutes 注册活动相关路由
// 读接口公开，写接口仅管理员
func (h *Handler) RegisterRoutes(mux *http.ServeMux, protect, adminOnly auth.Middleware) {
	mux.HandleFunc("GET /api/activities", h.List)
	mux.HandleFunc("GET /api/activities/{id}", h.Get)
	mux.HandleFunc("POST /api/activities", protect(adminOnly(h.Create)))
	mux.HandleFunc("PUT /api/activities/{id}", protect(adminOnly(h.Update)))
	mux.HandleFunc("DELETE /api/activities/{id}", protect(adminOnly(h.Delete)))
}

// ============================================================================
// HTTP 处理函数
// ============================================================================

// List 列出活动（公开）
// GET /api/activities
// 始终按 date 降序，无分页
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	activities, err := h.store.ListActivities(r.Context())
	if err != nil {
		log.Printf("[activity] List error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to list activities")
		return
	}
	httpx.WriteList(w, http.StatusOK, activities, len(activities))
}

// Get 获取活动详情（公开）
// GET /api/activities/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	activity, err := h.store.GetActivity(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[activity] Get error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to get activity")
		return
	}
	if activity == nil {
		httpx.WriteError(w, http.StatusNotFound, "activity not found")
		return
	}
	httpx.WriteData(w, http.StatusOK, activity)
}

// Create 创建活动
// POST /api/activities (multipart, 字段 images)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	fields, files, err := parseActivityForm(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	images, err := h.uploadAll(r.Context(), files)
	if err != nil {
		log.Printf("[activity] Create upload error: %v", err)
		httpx.WriteError(w, http.StatusBadRequest, "file upload failed")
		return
	}

	now := time.Now().UTC()
	activity := &model.Activity{
		ID:          generateID(),
		Title:       fields.title,
		Description: fields.description,
		Date:        fields.date,
		Images:      images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateActivity(r.Context(), activity); err != nil {
		log.Printf("[activity] Create error: %v", err)
		httpx.WriteError(w, http.StatusBadRequest, "failed to create activity")
		return
	}

	log.Printf("[activity] Created: %s (%d images)", activity.ID, len(activity.Images))
	httpx.WriteData(w, http.StatusCreated, activity)
}

// Update 更新活动
// PUT /api/activities/{id} (multipart)
//
// 有新文件时整体替换图片列表，否则使用调用方回传的 existingImages，
// 服务端不做合并或与既有状态的一致性校验。
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	fields, files, err := parseActivityForm(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var images []model.Image
	if len(files) > 0 {
		images, err = h.uploadAll(r.Context(), files)
		if err != nil {
			log.Printf("[activity] Update upload error: %v", err)
			httpx.WriteError(w, http.StatusBadRequest, "file upload failed")
			return
		}
	} else {
		images, err = parseExistingImages(r.FormValue("existingImages"))
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid existingImages")
			return
		}
	}

	activity := &model.Activity{
		ID:          r.PathValue("id"),
		Title:       fields.title,
		Description: fields.description,
		Date:        fields.date,
		Images:      images,
	}
	updated, err := h.store.ReplaceActivity(r.Context(), activity)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "activity not found")
			return
		}
		log.Printf("[activity] Update error: %v", err)
		httpx.WriteError(w, http.StatusBadRequest, "failed to update activity")
		return
	}

	httpx.WriteData(w, http.StatusOK, updated)
}

// Delete 删除活动
// DELETE /api/activities/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteActivity(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "activity not found")
			return
		}
		log.Printf("[activity] Delete error: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to delete activity")
		return
	}
	httpx.WriteData(w, http.StatusOK, struct{}{})
}

// parseExistingImages 解析回传的 existingImages JSON 数组
// 空字段视为空列表
func parseExistingImages(raw string) ([]model.Image, error) {
	if raw == "" {
		return []model.Image{}, nil
	}
	var images []model.Image
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, err
	}
	return model.NormalizeImages(images), nil
}
