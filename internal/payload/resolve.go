package payload

import (
	"fmt"
	"net/url"
	"strings"
)

// Resolver recovers references from scanned URLs. The zero value accepts
// every protocol kind.
type Resolver struct {
	kinds map[Kind]struct{}
}

// NewResolver returns a resolver that accepts only the given kinds, or all
// protocol kinds when none are given.
func NewResolver(kinds ...Kind) *Resolver {
	r := &Resolver{}
	if len(kinds) > 0 {
		r.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			r.kinds[k] = struct{}{}
		}
	}
	return r
}

// Accepts reports whether the resolver hands back references of kind k.
func (r *Resolver) Accepts(k Kind) bool {
	if !k.Valid() {
		return false
	}
	if r == nil || r.kinds == nil {
		return true
	}
	_, ok := r.kinds[k]
	return ok
}

// Resolve extracts the data parameter from scanURL and decodes it. Query
// parsing performs the only decode pass.
func (r *Resolver) Resolve(scanURL string) (ContentReference, error) {
	u, err := url.Parse(strings.TrimSpace(scanURL))
	if err != nil {
		return ContentReference{}, fail("resolve", ErrMalformedPayload, err.Error())
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return ContentReference{}, fail("resolve", ErrMalformedPayload, err.Error())
	}
	data := q.Get(DataParam)
	if data == "" {
		return ContentReference{}, fail("resolve", ErrMissingPayload, "no "+DataParam+" parameter")
	}

	ref, err := Deserialize([]byte(data))
	if err != nil {
		return ContentReference{}, err
	}
	if !r.Accepts(ref.Kind) {
		return ContentReference{}, fail("resolve", ErrUnsupportedKind, fmt.Sprintf("%q", ref.Kind))
	}
	return ref, nil
}

// ResolvePayload is the consumer entry point.
func (r *Resolver) ResolvePayload(scanURL string) (ContentReference, error) {
	return r.Resolve(scanURL)
}
