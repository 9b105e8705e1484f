package payload

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/photoplay/internal/uricomponent"
)

// DataParam is the query parameter that carries the envelope.
const DataParam = "data"

// Assembler turns references into scan-target URLs.
type Assembler struct {
	base   string
	origin string
	now    func() time.Time
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithClock overrides the time source used by Build.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = now }
}

// WithOrigin overrides the origin tag written into new references.
func WithOrigin(origin string) AssemblerOption {
	return func(a *Assembler) { a.origin = origin }
}

// NewAssembler returns an assembler emitting URLs under base
// (e.g. https://qr-ar-voice.web.app/play). base must be absolute and carry
// no query or fragment.
func NewAssembler(base string, opts ...AssemblerOption) (*Assembler, error) {
	if err := ValidateContentURL(base); err != nil {
		return nil, fmt.Errorf("payload: base url: %w", err)
	}
	if strings.ContainsAny(base, "?#") {
		return nil, fmt.Errorf("payload: base url %q must not carry a query or fragment", base)
	}
	a := &Assembler{base: base, origin: DefaultOrigin, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Base returns the scan-target base URL.
func (a *Assembler) Base() string { return a.base }

// Build constructs a reference stamped with the current time and the
// assembler's origin.
func (a *Assembler) Build(kind Kind, content string) (ContentReference, error) {
	return NewContentReference(kind, content, a.now(), a.origin)
}

// Assemble serializes ref and places it in the data parameter with exactly
// one encoding pass. content is never escaped on its own.
func (a *Assembler) Assemble(ref ContentReference) (string, error) {
	text, err := Serialize(ref)
	if err != nil {
		return "", err
	}
	return a.base + "?" + DataParam + "=" + uricomponent.Escape(string(text)), nil
}

// AssemblePayload is the producer entry point: build a reference for
// content and return its scan-target URL.
func (a *Assembler) AssemblePayload(kind Kind, content string) (string, error) {
	ref, err := a.Build(kind, content)
	if err != nil {
		return "", err
	}
	return a.Assemble(ref)
}
