package handler

import (
	"net/http"
	"strconv"
	"time"

	"plume/internal/httputil"
)

// BlobSource returns stored objects by key.
type BlobSource interface {
	Get(key string) ([]byte, string, bool)
}

// HealthCheck GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}

// ServeBlobs serves recordings from the in-memory object store at
// /blobs/{key...}. With an S3 store clients fetch presigned URLs instead.
func ServeBlobs(source BlobSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := PathParam(w, r, "key", "Object key")
		if !ok {
			return
		}

		data, contentType, found := source.Get(key)
		if !found {
			httputil.RespondError(w, http.StatusNotFound, "object not found")
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
