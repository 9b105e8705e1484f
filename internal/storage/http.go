package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/photoplay/internal/uricomponent"
)

const maxResourceBytes = 1 << 20

// HTTP is a client for a Firebase-compatible object endpoint such as
// https://firebasestorage.googleapis.com/v0/b/<bucket>/o, or another
// photoplay instance running the fs backend.
type HTTP struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTP returns an HTTP provider. token, if set, is sent as a bearer token
// on uploads and deletes.
func NewHTTP(endpoint, token string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTP{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the object endpoint.
func (h *HTTP) Endpoint() string { return h.endpoint }

func (h *HTTP) objectURL(path string) string {
	return h.endpoint + "/" + uricomponent.Escape(path)
}

// Put uploads data with a single POST. Transport errors map to
// ErrStorageUnavailable, rejected uploads to ErrUploadFailed. No retries.
func (h *HTTP) Put(ctx context.Context, path string, data []byte, contentType string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		h.endpoint+"?name="+uricomponent.Escape(path), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUploadFailed, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: status %d", ErrStorageUnavailable, resp.StatusCode)
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, readSnippet(resp.Body))
	}

	res, err := decodeResource(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	obj := res.Object()
	obj.URL = DownloadURL(h.endpoint, obj.Path, obj.Token)
	return obj, nil
}

// Get fetches the object's metadata (authorized) and then its media through
// the token-bearing download URL.
func (h *HTTP) Get(ctx context.Context, path string) (*Object, []byte, error) {
	resp, err := h.do(ctx, http.MethodGet, h.objectURL(path), true)
	if err != nil {
		return nil, nil, err
	}
	res, err := decodeResource(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("storage: get %s: %w", path, err)
	}
	obj := res.Object()
	obj.URL = DownloadURL(h.endpoint, obj.Path, obj.Token)

	resp, err = h.do(ctx, http.MethodGet, obj.URL, false)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return obj, data, nil
}

// Delete removes the object at path.
func (h *HTTP) Delete(ctx context.Context, path string) error {
	resp, err := h.do(ctx, http.MethodDelete, h.objectURL(path), true)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (h *HTTP) do(ctx context.Context, method, url string, auth bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: build request: %w", err)
	}
	if auth {
		h.authorize(req)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrStorageUnavailable, method, url, resp.StatusCode)
	}
	return nil, fmt.Errorf("storage: %s %s: status %d: %s", method, url, resp.StatusCode, readSnippet(resp.Body))
}

func (h *HTTP) authorize(req *http.Request) {
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
}

func decodeResource(r io.Reader) (Resource, error) {
	var res Resource
	if err := json.NewDecoder(io.LimitReader(r, maxResourceBytes)).Decode(&res); err != nil {
		return Resource{}, fmt.Errorf("decode resource: %w", err)
	}
	if res.Name == "" {
		return Resource{}, errors.New("resource without name")
	}
	return res, nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
