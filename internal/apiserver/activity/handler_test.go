package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activities-admin/internal/shared/model"
	"activities-admin/internal/shared/objstore"
	"activities-admin/internal/shared/storage"
)

// ============================================================================
// 测试替身
// ============================================================================

// fakeActivityStore 内存 ActivityStore，行为与 mongostore 对齐
type fakeActivityStore struct {
	mu         sync.Mutex
	activities map[string]*model.Activity
}

func newFakeActivityStore() *fakeActivityStore {
	return &fakeActivityStore{activities: make(map[string]*model.Activity)}
}

func (s *fakeActivityStore) CreateActivity(_ context.Context, a *model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	s.activities[a.ID] = &c
	return nil
}

func (s *fakeActivityStore) GetActivity(_ context.Context, id string) (*model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (s *fakeActivityStore) ListActivities(_ context.Context) ([]*model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Activity, 0, len(s.activities))
	for _, a := range s.activities {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *fakeActivityStore) ReplaceActivity(_ context.Context, a *model.Activity) (*model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.activities[a.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	updated := *a
	updated.CreatedAt = old.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	s.activities[a.ID] = &updated
	c := updated
	return &c, nil
}

func (s *fakeActivityStore) DeleteActivity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.activities, id)
	return nil
}

// fakeUploader 记录上传并按文件名返回确定性 URL
// failOn 非空时对应文件名的上传失败
type fakeUploader struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

func (u *fakeUploader) Upload(_ context.Context, file objstore.UploadFile) (objstore.Object, error) {
	u.mu.Lock()
	u.calls = append(u.calls, file.Name)
	u.mu.Unlock()

	if u.failOn != "" && file.Name == u.failOn {
		return objstore.Object{}, errors.New("storage service unavailable")
	}
	return objstore.Object{
		URL:          "http://minio.local/activities-admin/activities/image/" + file.Name,
		ResourceType: objstore.ResourceTypeFor(file.ContentType),
	}, nil
}

// ============================================================================
// 辅助函数
// ============================================================================

// noAuth 测试中跳过认证的中间件替身（授权逻辑在 auth 包单独测试）
func noAuth(next http.HandlerFunc) http.HandlerFunc { return next }

func newTestServer(t *testing.T, store *fakeActivityStore, uploader *fakeUploader) *httptest.Server {
	t.Helper()
	h := NewHandler(store, uploader)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, noAuth, noAuth)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type formFile struct {
	name        string
	contentType string
	content     string
}

// buildMultipart 构造 multipart 请求体（字段 images 携带文件）
func buildMultipart(t *testing.T, fields map[string]string, files []formFile) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, formFieldFiles, f.name))
		hdr.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func doMultipart(t *testing.T, method, url string, fields map[string]string, files []formFile) *http.Response {
	t.Helper()
	body, contentType := buildMultipart(t, fields, files)
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func validFields() map[string]string {
	return map[string]string{
		"title":       "Beach cleanup",
		"description": "Community beach cleanup day",
		"date":        "2026-08-15",
	}
}

// ============================================================================
// Create
// ============================================================================

func TestCreateActivity(t *testing.T) {
	t.Run("uploads preserve input order", func(t *testing.T) {
		store := newFakeActivityStore()
		uploader := &fakeUploader{}
		srv := newTestServer(t, store, uploader)

		files := []formFile{
			{"first.jpg", "image/jpeg", "aaa"},
			{"second.png", "image/png", "bbb"},
			{"third.gif", "image/gif", "ccc"},
		}
		resp := doMultipart(t, "POST", srv.URL+"/api/activities", validFields(), files)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]interface{})
		images := data["images"].([]interface{})
		require.Len(t, images, len(files))
		for i, f := range files {
			img := images[i].(map[string]interface{})
			assert.Contains(t, img["url"], f.name)
			assert.Equal(t, f.name, img["alt"])
		}

		// 持久化的记录与响应一致
		stored, err := store.GetActivity(context.Background(), data["id"].(string))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "Beach cleanup", stored.Title)
		require.Len(t, stored.Images, 3)
		assert.Contains(t, stored.Images[0].URL, "first.jpg")
	})

	t.Run("one failed upload aborts the whole batch", func(t *testing.T) {
		store := newFakeActivityStore()
		uploader := &fakeUploader{failOn: "second.png"}
		srv := newTestServer(t, store, uploader)

		files := []formFile{
			{"first.jpg", "image/jpeg", "aaa"},
			{"second.png", "image/png", "bbb"},
			{"third.gif", "image/gif", "ccc"},
		}
		resp := doMultipart(t, "POST", srv.URL+"/api/activities", validFields(), files)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		// all-or-nothing：任何 URL 都不得落库
		list, err := store.ListActivities(context.Background())
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("no files creates empty image list", func(t *testing.T) {
		store := newFakeActivityStore()
		srv := newTestServer(t, store, &fakeUploader{})

		resp := doMultipart(t, "POST", srv.URL+"/api/activities", validFields(), nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		data := decodeBody(t, resp)["data"].(map[string]interface{})
		images := data["images"].([]interface{})
		assert.Empty(t, images)
	})

	t.Run("rejects disallowed mime type before upload", func(t *testing.T) {
		store := newFakeActivityStore()
		uploader := &fakeUploader{}
		srv := newTestServer(t, store, uploader)

		files := []formFile{{"evil.exe", "application/octet-stream", "xxx"}}
		resp := doMultipart(t, "POST", srv.URL+"/api/activities", validFields(), files)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		// 入口过滤拒绝，适配器不被调用
		assert.Empty(t, uploader.calls)
	})

	t.Run("rejects more than five files", func(t *testing.T) {
		store := newFakeActivityStore()
		uploader := &fakeUploader{}
		srv := newTestServer(t, store, uploader)

		var files []formFile
		for i := 0; i < maxUploadFiles+1; i++ {
			files = append(files, formFile{fmt.Sprintf("f%d.jpg", i), "image/jpeg", "x"})
		}
		resp := doMultipart(t, "POST", srv.URL+"/api/activities", validFields(), files)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Empty(t, uploader.calls)
	})

	t.Run("validates required fields", func(t *testing.T) {
		store := newFakeActivityStore()
		srv := newTestServer(t, store, &fakeUploader{})

		tests := []struct {
			name   string
			fields map[string]string
		}{
			{"missing title", map[string]string{"description": "d", "date": "2026-08-15"}},
			{"missing description", map[string]string{"title": "t", "date": "2026-08-15"}},
			{"missing date", map[string]string{"title": "t", "description": "d"}},
			{"bad date", map[string]string{"title": "t", "description": "d", "date": "15/08/2026"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp := doMultipart(t, "POST", srv.URL+"/api/activities", tt.fields, nil)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				body := decodeBody(t, resp)
				assert.Equal(t, false, body["success"])
			})
		}
	})
}

// ============================================================================
// Read
// ============================================================================

func TestGetActivity(t *testing.T) {
	store := newFakeActivityStore()
	srv := newTestServer(t, store, &fakeUploader{})

	a := &model.Activity{
		ID:          "act-111111111111",
		Title:       "Art workshop",
		Description: "Painting for beginners",
		Date:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Images:      []model.Image{{URL: "http://x/1.jpg", Alt: "1.jpg"}},
	}
	require.NoError(t, store.CreateActivity(context.Background(), a))

	t.Run("round-trip", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/activities/act-111111111111")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := decodeBody(t, resp)["data"].(map[string]interface{})
		assert.Equal(t, a.Title, data["title"])
		assert.Equal(t, a.Description, data["description"])
		assert.Equal(t, "2026-05-01T00:00:00Z", data["date"])
		images := data["images"].([]interface{})
		require.Len(t, images, 1)
		assert.Equal(t, "http://x/1.jpg", images[0].(map[string]interface{})["url"])
	})

	t.Run("not found", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/activities/act-missing00000")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["success"])
	})
}

func TestListActivities(t *testing.T) {
	store := newFakeActivityStore()
	srv := newTestServer(t, store, &fakeUploader{})

	// 故意乱序插入
	dates := []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		require.NoError(t, store.CreateActivity(context.Background(), &model.Activity{
			ID:          fmt.Sprintf("act-%012d", i),
			Title:       fmt.Sprintf("Activity %d", i),
			Description: "d",
			Date:        d,
		}))
	}

	resp, err := http.Get(srv.URL + "/api/activities")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["count"])

	data := body["data"].([]interface{})
	require.Len(t, data, 3)
	var got []string
	for _, item := range data {
		got = append(got, item.(map[string]interface{})["date"].(string))
	}
	// date 降序
	assert.Equal(t, []string{
		"2026-07-01T00:00:00Z",
		"2026-03-01T00:00:00Z",
		"2026-01-01T00:00:00Z",
	}, got)
}

// ============================================================================
// Update / Delete
// ============================================================================

func TestUpdateActivity(t *testing.T) {
	seed := func(t *testing.T, store *fakeActivityStore) *model.Activity {
		t.Helper()
		a := &model.Activity{
			ID:          "act-222222222222",
			Title:       "Old title",
			Description: "Old description",
			Date:        time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			Images:      []model.Image{{URL: "http://x/old.jpg", Alt: "old.jpg"}},
		}
		require.NoError(t, store.CreateActivity(context.Background(), a))
		return a
	}

	t.Run("new files replace image list", func(t *testing.T) {
		store := newFakeActivityStore()
		srv := newTestServer(t, store, &fakeUploader{})
		a := seed(t, store)

		files := []formFile{{"new.jpg", "image/jpeg", "nnn"}}
		resp := doMultipart(t, "PUT", srv.URL+"/api/activities/"+a.ID, validFields(), files)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := decodeBody(t, resp)["data"].(map[string]interface{})
		images := data["images"].([]interface{})
		require.Len(t, images, 1)
		assert.Contains(t, images[0].(map[string]interface{})["url"], "new.jpg")

		stored, _ := store.GetActivity(context.Background(), a.ID)
		require.Len(t, stored.Images, 1)
		assert.Contains(t, stored.Images[0].URL, "new.jpg")
	})

	t.Run("existingImages used verbatim when no files", func(t *testing.T) {
		store := newFakeActivityStore()
		srv := newTestServer(t, store, &fakeUploader{})
		a := seed(t, store)

		fields := validFields()
		fields["existingImages"] = `[{"url":"http://x/kept.jpg","alt":"kept"},{"url":"http://x/other.jpg"}]`
		resp := doMultipart(t, "PUT", srv.URL+"/api/activities/"+a.ID, fields, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		stored, _ := store.GetActivity(context.Background(), a.ID)
		require.Len(t, stored.Images, 2)
		assert.Equal(t, "http://x/kept.jpg", stored.Images[0].URL)
		assert.Equal(t, "kept", stored.Images[0].Alt)
		// 缺失 alt 回填缺省值
		assert.Equal(t, model.DefaultImageAlt, stored.Images[1].Alt)
	})

	t.Run("no files and no existingImages clears list", func(t *testing.T) {
		store := newFakeActivityStore()
		srv := newTestServer(t, store, &fakeUploader{})
		a := seed(t, store)

		resp := doMultipart(t, "PUT", srv.URL+"/api/activities/"+a.ID, validFields(), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		stored, _ := store.GetActivity(context.Background(), a.ID)
		assert.Empty(t, stored.Images)
	})

	t.Run("upload failure leaves record untouched", func(t *testing.T) {
		store := newFakeActivityStore()
		srv := newTestServer(t, store, &fakeUploader{failOn: "bad.jpg"})
		a := seed(t, store)

		files := []formFile{{"bad.jpg", "image/jpeg", "zzz"}}
		resp := doMultipart(t, "PUT", srv.URL+"/api/activities/"+a.ID, validFields(), files)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		stored, _ := store.GetActivity(context.Background(), a.ID)
		assert.Equal(t, "Old title", stored.Title)
		assert.Contains(t, stored.Images[0].URL, "old.jpg")
	})

	t.Run("not found", func(t *testing.T) {
		store := newFakeActivityStore()
		srv := newTestServer(t, store, &fakeUploader{})

		resp := doMultipart(t, "PUT", srv.URL+"/api/activities/act-missing00000", validFields(), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteActivity(t *testing.T) {
	store := newFakeActivityStore()
	srv := newTestServer(t, store, &fakeUploader{})

	a := &model.Activity{
		ID:          "act-333333333333",
		Title:       "To delete",
		Description: "d",
		Date:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateActivity(context.Background(), a))

	doDelete := func(id string) *http.Response {
		req, err := http.NewRequest("DELETE", srv.URL+"/api/activities/"+id, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := doDelete(a.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])

	// 第二次删除返回 404
	resp = doDelete(a.ID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, false, body["success"])

	resp = doDelete("act-never0000000")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
