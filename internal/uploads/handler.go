// Package uploads implements the video upload and past-uploads listing
// endpoints. Both operate strictly inside the authenticated user's
// uploads/{uid}/ key prefix; that prefix is the sole tenant-isolation
// mechanism, so it is composed here and nowhere else.
package uploads

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nitvob/outbrandai-webcam-recorder/internal/middleware"
	"github.com/nitvob/outbrandai-webcam-recorder/internal/storage"
)

// UploadRecord is one entry in the past-uploads listing: the object name,
// a freshly signed read URL, and the original upload timestamp. A record
// is recomputed on every listing call and never cached, since the URL
// expires.
type UploadRecord struct {
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	UploadDateTime time.Time `json:"uploadDateTime"`
}

// Handler handles upload and listing HTTP requests.
type Handler struct {
	store         storage.ObjectStore
	signedURLTTL  time.Duration
	maxUploadSize int64
}

// NewHandler creates an upload/listing handler backed by the given store.
func NewHandler(store storage.ObjectStore, signedURLTTL time.Duration, maxUploadSize int64) *Handler {
	return &Handler{
		store:         store,
		signedURLTTL:  signedURLTTL,
		maxUploadSize: maxUploadSize,
	}
}

// HandleUpload handles POST /api/upload. It accepts a single multipart
// file field named "video", writes it under
// uploads/{uid}/{uniqueId}-{originalName}, and acknowledges only after
// the store confirms the write. There is no partial success: the caller
// sees either 200 or an error status.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		http.Error(w, "No token provided", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		if strings.Contains(err.Error(), "http: request body too large") {
			http.Error(w, fmt.Sprintf("File too large (max %d bytes)", h.maxUploadSize), http.StatusRequestEntityTooLarge)
			return
		}
		writeMessage(w, http.StatusBadRequest, "No file uploaded.")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// filepath.Base strips any directory components a client may have
	// smuggled into the filename.
	key := fmt.Sprintf("uploads/%s/%s-%s", identity.UID, uuid.New().String(), filepath.Base(header.Filename))

	if err := h.store.Put(r.Context(), key, contentType, file, header.Size); err != nil {
		slog.Error("upload write failed", "uid", identity.UID, "key", key, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Upload failed.")
		return
	}

	slog.Info("upload stored", "uid", identity.UID, "key", key, "size", header.Size)
	writeMessage(w, http.StatusOK, "Successful upload.")
}

// HandleList handles GET /api/past-uploads. It lists every object under
// the caller's prefix, signs a read URL for each concurrently, waits for
// all of them, and responds with the records sorted newest-first. Any
// failure aborts the whole call; partial listings are never returned.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		http.Error(w, "No token provided", http.StatusUnauthorized)
		return
	}

	prefix := fmt.Sprintf("uploads/%s/", identity.UID)

	objects, err := h.store.List(r.Context(), prefix)
	if err != nil {
		slog.Error("listing failed", "uid", identity.UID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch uploads.")
		return
	}

	// Fan out one signed-URL generation per object, barrier-wait for all.
	// Each goroutine writes its own slot, so no ordering is needed here;
	// errgroup cancels the rest on the first failure.
	records := make([]UploadRecord, len(objects))
	g, ctx := errgroup.WithContext(r.Context())
	for i, obj := range objects {
		g.Go(func() error {
			url, err := h.store.SignedURL(ctx, obj.Key, h.signedURLTTL)
			if err != nil {
				return err
			}
			records[i] = UploadRecord{
				Name:           obj.Key,
				URL:            url,
				UploadDateTime: obj.CreatedAt,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("signed URL generation failed", "uid", identity.UID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch uploads.")
		return
	}

	// Newest first; stable so equal timestamps keep the listing order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UploadDateTime.After(records[j].UploadDateTime)
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("failed to encode listing", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"message": message}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
