package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nitvob/outbrandai-webcam-recorder/internal/auth"
	"github.com/nitvob/outbrandai-webcam-recorder/internal/middleware"
	"github.com/nitvob/outbrandai-webcam-recorder/internal/storage"
)

const testMaxUpload = int64(10 * 1024 * 1024)

// stubVerifier accepts tokens of the form "token-{uid}".
type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	uid, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{UID: uid}, nil
}

// countingStore wraps an ObjectStore and records whether it was touched.
type countingStore struct {
	storage.ObjectStore
	calls int
}

func (c *countingStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	c.calls++
	return c.ObjectStore.Put(ctx, key, contentType, r, size)
}

func (c *countingStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	c.calls++
	return c.ObjectStore.List(ctx, prefix)
}

// failingStore returns errors for everything.
type failingStore struct{}

func (failingStore) Put(context.Context, string, string, io.Reader, int64) error {
	return errors.New("write failed")
}

func (failingStore) List(context.Context, string) ([]storage.ObjectInfo, error) {
	return nil, errors.New("list failed")
}

func (failingStore) SignedURL(context.Context, string, time.Duration) (string, error) {
	return "", errors.New("presign failed")
}

// signFailStore lists fine but cannot sign.
type signFailStore struct {
	*storage.MemoryStore
}

func (signFailStore) SignedURL(context.Context, string, time.Duration) (string, error) {
	return "", errors.New("presign failed")
}

// newAPI builds the protected handler pair the way the server does.
func newAPI(store storage.ObjectStore) http.Handler {
	h := NewHandler(store, 180*time.Minute, testMaxUpload)
	requireAuth := middleware.RequireAuth(stubVerifier{})

	mux := http.NewServeMux()
	mux.Handle("/api/upload", requireAuth(http.HandlerFunc(h.HandleUpload)))
	mux.Handle("/api/past-uploads", requireAuth(http.HandlerFunc(h.HandleList)))
	return mux
}

// multipartBody builds a multipart body with a single "video" field.
func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadRequest(t *testing.T, token, field, filename, content string) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func listRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/past-uploads", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

func decodeRecords(t *testing.T, rec *httptest.ResponseRecorder) []UploadRecord {
	t.Helper()
	var records []UploadRecord
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode listing %q: %v", rec.Body.String(), err)
	}
	return records
}

func TestAuthGateNeverTouchesStore(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"rejected token", "Bearer badtoken", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &countingStore{ObjectStore: storage.NewMemoryStore()}
			api := newAPI(store)

			for _, req := range []*http.Request{
				uploadRequest(t, "", "video", "clip.webm", "data"),
				listRequest(""),
			} {
				if tt.header != "" {
					req.Header.Set("Authorization", tt.header)
				} else {
					req.Header.Del("Authorization")
				}
				rec := httptest.NewRecorder()
				api.ServeHTTP(rec, req)
				if rec.Code != tt.wantStatus {
					t.Errorf("%s %s: status = %d, want %d", req.Method, req.URL.Path, rec.Code, tt.wantStatus)
				}
			}

			if store.calls != 0 {
				t.Errorf("store touched %d times by unauthenticated requests", store.calls)
			}
		})
	}
}

func TestUploadRoundTrip(t *testing.T) {
	memStore := storage.NewMemoryStore()
	api := newAPI(memStore)

	before := time.Now().Add(-time.Second)

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, uploadRequest(t, "token-alice", "video", "my-clip.webm", "webm bytes"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	if msg := decodeMessage(t, rec); msg != "Successful upload." {
		t.Errorf("message = %q, want %q", msg, "Successful upload.")
	}

	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, listRequest("token-alice"))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	records := decodeRecords(t, rec)
	if len(records) != 1 {
		t.Fatalf("listing has %d records, want 1", len(records))
	}

	got := records[0]
	if !strings.HasPrefix(got.Name, "uploads/alice/") {
		t.Errorf("Name %q not under uploads/alice/", got.Name)
	}
	if !strings.HasSuffix(got.Name, "-my-clip.webm") {
		t.Errorf("Name %q does not end with the original filename", got.Name)
	}
	if got.URL == "" {
		t.Error("record URL is empty")
	}
	if got.UploadDateTime.Before(before) {
		t.Errorf("UploadDateTime %v earlier than upload invocation", got.UploadDateTime)
	}

	data, contentType, ok := memStore.Get(got.Name)
	if !ok {
		t.Fatalf("object %q not in store", got.Name)
	}
	if string(data) != "webm bytes" {
		t.Errorf("stored data = %q", data)
	}
	if contentType != "application/octet-stream" {
		t.Errorf("contentType = %q", contentType)
	}
}

func TestUploadNoFile(t *testing.T) {
	api := newAPI(storage.NewMemoryStore())

	// Multipart body without a "video" field.
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, uploadRequest(t, "token-alice", "attachment", "clip.webm", "data"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "No file uploaded." {
		t.Errorf("message = %q, want %q", msg, "No file uploaded.")
	}

	// Not a multipart body at all.
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("raw"))
	req.Header.Set("Authorization", "Bearer token-alice")
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "No file uploaded." {
		t.Errorf("message = %q, want %q", msg, "No file uploaded.")
	}
}

func TestUploadStoreFailure(t *testing.T) {
	api := newAPI(failingStore{})

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, uploadRequest(t, "token-alice", "video", "clip.webm", "data"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "Upload failed." {
		t.Errorf("message = %q, want %q", msg, "Upload failed.")
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := NewHandler(storage.NewMemoryStore(), 180*time.Minute, 64)
	requireAuth := middleware.RequireAuth(stubVerifier{})
	handler := requireAuth(http.HandlerFunc(h.HandleUpload))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, "token-alice", "video", "clip.webm", strings.Repeat("x", 4096)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestListEmpty(t *testing.T) {
	api := newAPI(storage.NewMemoryStore())

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, listRequest("token-nobody"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListTenantIsolation(t *testing.T) {
	api := newAPI(storage.NewMemoryStore())

	for _, tc := range []struct{ token, file string }{
		{"token-alice", "alice-1.webm"},
		{"token-alice", "alice-2.webm"},
		{"token-bob", "bob-1.webm"},
	} {
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, uploadRequest(t, tc.token, "video", tc.file, "data"))
		if rec.Code != http.StatusOK {
			t.Fatalf("upload %s: status %d", tc.file, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, listRequest("token-bob"))
	records := decodeRecords(t, rec)
	if len(records) != 1 {
		t.Fatalf("bob sees %d records, want 1", len(records))
	}
	for _, r := range records {
		if !strings.HasPrefix(r.Name, "uploads/bob/") {
			t.Errorf("bob's listing leaked %q", r.Name)
		}
	}
}

func TestListSortedNewestFirst(t *testing.T) {
	memStore := storage.NewMemoryStore()

	// Seed objects with controlled timestamps.
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first.webm", "second.webm", "third.webm"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		memStore.SetClock(func() time.Time { return ts })
		if err := memStore.Put(context.Background(), "uploads/alice/"+name, "video/webm", strings.NewReader("x"), 1); err != nil {
			t.Fatalf("seed Put: %v", err)
		}
	}
	memStore.SetClock(time.Now)

	api := newAPI(memStore)
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, listRequest("token-alice"))
	records := decodeRecords(t, rec)
	if len(records) != 3 {
		t.Fatalf("listing has %d records, want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].UploadDateTime.Before(records[i].UploadDateTime) {
			t.Errorf("records[%d] (%v) older than records[%d] (%v)",
				i-1, records[i-1].UploadDateTime, i, records[i].UploadDateTime)
		}
	}
	if records[0].Name != "uploads/alice/third.webm" {
		t.Errorf("newest record = %q, want third.webm first", records[0].Name)
	}
}

func TestListIdempotentNames(t *testing.T) {
	api := newAPI(storage.NewMemoryStore())

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, uploadRequest(t, "token-alice", "video", "clip.webm", "data"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}

	names := func() []string {
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, listRequest("token-alice"))
		records := decodeRecords(t, rec)
		out := make([]string, len(records))
		for i, r := range records {
			out[i] = r.Name
		}
		return out
	}

	first, second := names(), names()
	if len(first) != len(second) {
		t.Fatalf("listing size changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("name %d changed between listings: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestListFailureAbortsEntirely(t *testing.T) {
	t.Run("list error", func(t *testing.T) {
		api := newAPI(failingStore{})
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, listRequest("token-alice"))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if msg := decodeMessage(t, rec); msg != "Failed to fetch uploads." {
			t.Errorf("message = %q, want %q", msg, "Failed to fetch uploads.")
		}
	})

	t.Run("presign error", func(t *testing.T) {
		memStore := storage.NewMemoryStore()
		if err := memStore.Put(context.Background(), "uploads/alice/a.webm", "video/webm", strings.NewReader("x"), 1); err != nil {
			t.Fatalf("seed Put: %v", err)
		}

		api := newAPI(signFailStore{memStore})
		rec := httptest.NewRecorder()
		api.ServeHTTP(rec, listRequest("token-alice"))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if msg := decodeMessage(t, rec); msg != "Failed to fetch uploads." {
			t.Errorf("message = %q, want %q", msg, "Failed to fetch uploads.")
		}
	})
}

func TestMethodNotAllowed(t *testing.T) {
	api := newAPI(storage.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	req.Header.Set("Authorization", "Bearer token-alice")
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/upload status = %d, want 405", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/past-uploads", nil)
	req.Header.Set("Authorization", "Bearer token-alice")
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/past-uploads status = %d, want 405", rec.Code)
	}
}
