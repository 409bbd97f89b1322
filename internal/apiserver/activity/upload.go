package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"activities-admin/internal/shared/model"
	"activities-admin/internal/shared/objstore"
)

// 入口过滤规则：类型白名单、单文件大小、单请求文件数
const (
	maxUploadFiles = 5
	maxFileSize    = 50 << 20 // 50 MB
	formFieldFiles = "images"
)

// allowedMIMETypes 允许的媒体类型白名单
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"video/mp4":  true,
	"video/mpeg": true,
}

// activityFields 活动表单的标量字段
type activityFields struct {
	title       string
	description string
	date        time.Time
}

// parseActivityForm 解析 multipart 表单：校验标量字段并过滤上传文件
//
// 文件在此处整体读入内存（与上传适配器的缓冲契约一致）；
// 越界文件（类型、大小、数量）在适配器被调用之前拒绝。
func parseActivityForm(r *http.Request) (activityFields, []objstore.UploadFile, error) {
	if err := r.ParseMultipartForm(maxFileSize); err != nil {
		return activityFields{}, nil, errors.New("invalid multipart form")
	}

	fields := activityFields{
		title:       r.FormValue("title"),
		description: r.FormValue("description"),
	}
	if fields.title == "" {
		return activityFields{}, nil, errors.New("title is required")
	}
	if fields.description == "" {
		return activityFields{}, nil, errors.New("description is required")
	}

	date, err := parseDate(r.FormValue("date"))
	if err != nil {
		return activityFields{}, nil, err
	}
	fields.date = date

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[formFieldFiles]
	}
	if len(headers) > maxUploadFiles {
		return activityFields{}, nil, fmt.Errorf("too many files: at most %d allowed", maxUploadFiles)
	}

	files := make([]objstore.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxFileSize {
			return activityFields{}, nil, fmt.Errorf("file %s exceeds the %d MB limit", fh.Filename, maxFileSize>>20)
		}
		contentType := fh.Header.Get("Content-Type")
		if !allowedMIMETypes[contentType] {
			return activityFields{}, nil, fmt.Errorf("file type %s is not allowed", contentType)
		}

		f, err := fh.Open()
		if err != nil {
			return activityFields{}, nil, errors.New("failed to read uploaded file")
		}
		data, err := io.ReadAll(io.LimitReader(f, maxFileSize+1))
		f.Close()
		if err != nil {
			return activityFields{}, nil, errors.New("failed to read uploaded file")
		}
		if len(data) > maxFileSize {
			return activityFields{}, nil, fmt.Errorf("file %s exceeds the %d MB limit", fh.Filename, maxFileSize>>20)
		}

		files = append(files, objstore.UploadFile{
			Data:        data,
			ContentType: contentType,
			Name:        fh.Filename,
		})
	}

	return fields, files, nil
}

// uploadAll 并发上传全部文件，等待全部完成，任一失败则整批失败
//
// 结果按下标写入，保证图片顺序与上传输入顺序一致；
// 首个错误取消其余上传，调用方在失败时不持久化任何 URL。
func (h *Handler) uploadAll(ctx context.Context, files []objstore.UploadFile) ([]model.Image, error) {
	if len(files) == 0 {
		return []model.Image{}, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	images := make([]model.Image, len(files))

	for i, file := range files {
		g.Go(func() error {
			obj, err := h.uploader.Upload(ctx, file)
			if err != nil {
				return err
			}
			alt := file.Name
			if alt == "" {
				alt = model.DefaultImageAlt
			}
			images[i] = model.Image{URL: obj.URL, Alt: alt}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// parseDate 解析活动日期：RFC 3339 或 2006-01-02
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("date is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("invalid date format")
}
