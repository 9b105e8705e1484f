// Package storage defines the object-storage backends voice recordings are
// uploaded to and the Firebase-style resource format they exchange.
package storage

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/starford/photoplay/internal/storageurl"
)

var (
	// ErrStorageUnavailable means the backend is unconfigured or unreachable.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUploadFailed means the backend was reached but rejected or lost the upload.
	ErrUploadFailed = errors.New("upload failed")
	// ErrNotFound means no object exists at the path.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidPath means the object path is empty, absolute or escapes the bucket.
	ErrInvalidPath = errors.New("invalid object path")
)

// Provider is the interface for object operations. Paths are
// "<namespace>/<filename>", e.g. "audio/clip.webm".
type Provider interface {
	// Put stores data at path and returns the stored object with its download URL.
	Put(ctx context.Context, path string, data []byte, contentType string) (*Object, error)
	// Get returns the object's metadata and bytes.
	Get(ctx context.Context, path string) (*Object, []byte, error)
	// Delete removes the object at path.
	Delete(ctx context.Context, path string) error
	// Endpoint returns the object endpoint download URLs are built on.
	Endpoint() string
}

// Object describes a stored object.
type Object struct {
	Path        string    `yaml:"path"`
	Bucket      string    `yaml:"bucket"`
	ContentType string    `yaml:"content_type"`
	Size        int64     `yaml:"size"`
	Checksum    string    `yaml:"checksum"`
	Token       string    `yaml:"token"`
	CreatedAt   time.Time `yaml:"created_at"`
	// URL is the download URL as the backend reported it.
	URL string `yaml:"-"`
}

// Resource is the JSON object resource exchanged with Firebase-compatible
// storage endpoints.
type Resource struct {
	Name           string `json:"name"`
	Bucket         string `json:"bucket"`
	ContentType    string `json:"contentType"`
	Size           string `json:"size"`
	SHA256Hash     string `json:"sha256Hash,omitempty"`
	TimeCreated    string `json:"timeCreated"`
	DownloadTokens string `json:"downloadTokens"`
}

// Resource converts o to its wire form.
func (o *Object) Resource() Resource {
	return Resource{
		Name:           o.Path,
		Bucket:         o.Bucket,
		ContentType:    o.ContentType,
		Size:           strconv.FormatInt(o.Size, 10),
		SHA256Hash:     o.Checksum,
		TimeCreated:    o.CreatedAt.UTC().Format(time.RFC3339Nano),
		DownloadTokens: o.Token,
	}
}

// Object converts a wire resource. Only the first download token is kept.
func (r Resource) Object() *Object {
	size, _ := strconv.ParseInt(r.Size, 10, 64)
	created, _ := time.Parse(time.RFC3339Nano, r.TimeCreated)
	token, _, _ := strings.Cut(r.DownloadTokens, ",")
	return &Object{
		Path:        r.Name,
		Bucket:      r.Bucket,
		ContentType: r.ContentType,
		Size:        size,
		Checksum:    r.SHA256Hash,
		Token:       token,
		CreatedAt:   created,
	}
}

// DownloadURL renders the media URL for path under endpoint.
func DownloadURL(endpoint, path, token string) string {
	return storageurl.New(endpoint).Build(path, token)
}

// Unconfigured is the backend used when no storage is configured. Every
// operation fails with ErrStorageUnavailable; it never substitutes a local
// reference.
type Unconfigured struct{}

func (Unconfigured) Put(context.Context, string, []byte, string) (*Object, error) {
	return nil, ErrStorageUnavailable
}

func (Unconfigured) Get(context.Context, string) (*Object, []byte, error) {
	return nil, nil, ErrStorageUnavailable
}

func (Unconfigured) Delete(context.Context, string) error { return ErrStorageUnavailable }

func (Unconfigured) Endpoint() string { return "" }
