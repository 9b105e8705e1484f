// Package payload implements the scan payload protocol: the ContentReference
// envelope, its canonical codec, and the assembler/resolver pair that moves
// it in and out of a scan-target URL.
package payload

import (
	"fmt"
	"net/url"
	"time"
)

// Kind is the type of content a reference points at.
type Kind string

const (
	KindVoice Kind = "voice"
	KindLink  Kind = "link"
)

// DefaultOrigin tags envelopes produced by this application.
const DefaultOrigin = "PhotoPlay"

// TimestampLayout is the ISO-8601 form written into envelopes (UTC, milliseconds).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Kinds lists every kind the protocol defines.
func Kinds() []Kind { return []Kind{KindVoice, KindLink} }

// Valid reports whether k is one of the protocol's kinds.
func (k Kind) Valid() bool {
	return k == KindVoice || k == KindLink
}

// ParseKind converts s into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fail("parse kind", ErrUnsupportedKind, fmt.Sprintf("%q", s))
	}
	return k, nil
}

// ContentReference is the unit of meaning carried from producer to consumer.
type ContentReference struct {
	Kind      Kind
	Content   string
	CreatedAt time.Time
	Origin    string
}

// NewContentReference validates content and builds a reference. CreatedAt is
// stored in UTC at millisecond precision so it survives the wire form.
func NewContentReference(kind Kind, content string, createdAt time.Time, origin string) (ContentReference, error) {
	if !kind.Valid() {
		return ContentReference{}, fail("new", ErrUnsupportedKind, fmt.Sprintf("%q", kind))
	}
	if err := ValidateContentURL(content); err != nil {
		return ContentReference{}, fail("new", ErrInvalidContentURL, err.Error())
	}
	return ContentReference{
		Kind:      kind,
		Content:   content,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
		Origin:    origin,
	}, nil
}

// ValidateContentURL checks that s is an absolute URL with a host.
func ValidateContentURL(s string) error {
	if s == "" {
		return fmt.Errorf("empty url")
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not an absolute url", s)
	}
	return nil
}

// Equal reports field-wise equality.
func (r ContentReference) Equal(o ContentReference) bool {
	return r.Kind == o.Kind &&
		r.Content == o.Content &&
		r.CreatedAt.Equal(o.CreatedAt) &&
		r.Origin == o.Origin
}
