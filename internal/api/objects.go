package api

import (
	"bytes"
	"crypto/subtle"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/photoplay/internal/playservice"
	"github.com/starford/photoplay/internal/storage"
)

// ObjectHandler serves a Firebase-compatible object endpoint on top of a
// storage provider:
//
//	POST   /v0/b/{bucket}/o?name=<path>             upload (auth)
//	GET    /v0/b/{bucket}/o/{object}?alt=media&token media
//	GET    /v0/b/{bucket}/o/{object}                metadata (auth)
//	DELETE /v0/b/{bucket}/o/{object}                delete (auth)
//
// {object} is a single path segment, so an object path is only addressable
// with its separators escaped as %2F.
type ObjectHandler struct {
	store  storage.Provider
	bucket string
	auth   func(http.Handler) http.Handler
}

// NewObjectHandler creates a handler for the named bucket. Uploads, metadata
// and deletes require the operator token; media downloads are authorized by
// the object's download token instead.
func NewObjectHandler(store storage.Provider, bucket string, authEnabled bool, token string) *ObjectHandler {
	return &ObjectHandler{store: store, bucket: bucket, auth: AuthMiddleware(authEnabled, token)}
}

// Routes returns the object routes, to be mounted at /v0/b/{bucket}/o.
func (oh *ObjectHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(oh.checkBucket)
	r.With(oh.auth).Post("/", oh.Upload)
	r.Get("/{object}", oh.Get)
	r.With(oh.auth).Delete("/{object}", oh.Delete)
	return r
}

func (oh *ObjectHandler) checkBucket(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "bucket") != oh.bucket {
			writeJSON(w, http.StatusNotFound, errorBody("bucket not found"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// objectPath decodes the {object} segment. chi matches on the raw path, so
// the parameter still carries its percent-escapes.
func objectPath(r *http.Request) (string, bool) {
	p, err := url.PathUnescape(chi.URLParam(r, "object"))
	if err != nil || p == "" {
		return "", false
	}
	return p, true
}

// Upload handles POST /v0/b/{bucket}/o?name=<path>.
func (oh *ObjectHandler) Upload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'name' is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, playservice.MaxVoiceBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("object too large"))
		return
	}

	obj, err := oh.store.Put(r.Context(), name, data, r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, "upload object", err)
		return
	}
	writeJSON(w, http.StatusOK, obj.Resource())
}

// Get handles GET /v0/b/{bucket}/o/{object}. With alt=media it streams the
// object when the download token matches; otherwise it returns metadata to
// authorized callers.
func (oh *ObjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	path, ok := objectPath(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid object name"))
		return
	}

	q := r.URL.Query()
	if q.Get("alt") != "media" {
		oh.metadata(w, r, path)
		return
	}

	obj, data, err := oh.store.Get(r.Context(), path)
	if err != nil {
		writeError(w, "get object", err)
		return
	}
	if obj.Token == "" || subtle.ConstantTimeCompare([]byte(q.Get("token")), []byte(obj.Token)) != 1 {
		writeJSON(w, http.StatusForbidden, errorBody("invalid download token"))
		return
	}
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, path, obj.CreatedAt, bytes.NewReader(data))
}

func (oh *ObjectHandler) metadata(w http.ResponseWriter, r *http.Request, path string) {
	oh.auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obj, _, err := oh.store.Get(r.Context(), path)
		if err != nil {
			writeError(w, "get object metadata", err)
			return
		}
		writeJSON(w, http.StatusOK, obj.Resource())
	})).ServeHTTP(w, r)
}

// Delete handles DELETE /v0/b/{bucket}/o/{object}.
func (oh *ObjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	path, ok := objectPath(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid object name"))
		return
	}
	if err := oh.store.Delete(r.Context(), path); err != nil {
		writeError(w, "delete object", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
