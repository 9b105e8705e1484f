// Package storageurl repairs object-storage download URLs whose path
// separator lost its escape sequence.
//
// The backend's fetch endpoint addresses an object as a single path segment,
// so "audio/clip.webm" must appear as "audio%2Fclip.webm". Some upload paths
// return the literal form, which is unfetchable.
package storageurl

import (
	"net/url"
	"strings"

	"github.com/starford/photoplay/internal/uricomponent"
)

// SeparatorEscape is the single-encoded form of '/'.
const SeparatorEscape = "%2F"

// Normalizer rebuilds download URLs against a backend object endpoint such as
// https://firebasestorage.googleapis.com/v0/b/<bucket>/o.
type Normalizer struct {
	base string
}

// New returns a Normalizer for the given object endpoint.
func New(base string) *Normalizer {
	return &Normalizer{base: strings.TrimRight(base, "/")}
}

// Base returns the object endpoint.
func (n *Normalizer) Base() string { return n.base }

// Normalize returns rawURL when it already carries the separator escape and
// otherwise rebuilds the URL from path and token. It is idempotent.
func (n *Normalizer) Normalize(rawURL, path, token string) string {
	if HasEscapedSeparator(rawURL) || path == "" {
		return rawURL
	}
	return n.Build(path, token)
}

// Build renders the canonical download URL for path. The whole path goes
// through one escaping pass.
func (n *Normalizer) Build(path, token string) string {
	u := n.base + "/" + uricomponent.Escape(path) + "?alt=media"
	if token != "" {
		u += "&token=" + uricomponent.Escape(token)
	}
	return u
}

// HasEscapedSeparator reports whether the path/query region of rawURL
// contains the separator escape sequence.
func HasEscapedSeparator(rawURL string) bool {
	region := rawURL
	if i := strings.Index(region, "://"); i >= 0 {
		region = region[i+3:]
		j := strings.IndexAny(region, "/?#")
		if j < 0 {
			return false
		}
		region = region[j:]
	}
	return strings.Contains(strings.ToUpper(region), SeparatorEscape)
}

// TokenFromURL extracts the download token from a backend URL.
func TokenFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}

// EndpointFromURL returns the object endpoint of a Firebase-style download
// URL, i.e. everything up to and including the "/o" collection segment.
func EndpointFromURL(rawURL string) (string, bool) {
	head, _, _ := strings.Cut(rawURL, "?")
	i := strings.Index(head, "/o/")
	if i < 0 || !strings.Contains(head[:i], "://") {
		return "", false
	}
	return head[:i+2], true
}
