package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/photoplay/internal/uricomponent"
)

// envelope is the canonical wire record. Field order is the key order.
type envelope struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	App       string `json:"app"`
}

// wireEnvelope distinguishes absent fields from empty ones on decode.
type wireEnvelope struct {
	Type      *string `json:"type"`
	Content   *string `json:"content"`
	Timestamp *string `json:"timestamp"`
	App       *string `json:"app"`
}

// Serialize renders ref as canonical compact JSON. The result is not
// percent-encoded: the assembler performs the one encoding pass.
func Serialize(ref ContentReference) ([]byte, error) {
	if !ref.Kind.Valid() {
		return nil, fail("serialize", ErrUnsupportedKind, fmt.Sprintf("%q", ref.Kind))
	}
	if err := ValidateContentURL(ref.Content); err != nil {
		return nil, fail("serialize", ErrInvalidContentURL, err.Error())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(envelope{
		Type:      string(ref.Kind),
		Content:   ref.Content,
		Timestamp: ref.CreatedAt.UTC().Format(TimestampLayout),
		App:       ref.Origin,
	}); err != nil {
		return nil, fmt.Errorf("payload: serialize: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Deserialize parses canonical envelope text that has already been through
// its single decode pass.
func Deserialize(text []byte) (ContentReference, error) {
	var w wireEnvelope
	if err := json.Unmarshal(text, &w); err != nil {
		return ContentReference{}, fail("deserialize", ErrMalformedPayload, err.Error())
	}
	switch {
	case w.Type == nil || *w.Type == "":
		return ContentReference{}, fail("deserialize", ErrMalformedPayload, "missing type")
	case w.Content == nil:
		return ContentReference{}, fail("deserialize", ErrMalformedPayload, "missing content")
	case w.Timestamp == nil:
		return ContentReference{}, fail("deserialize", ErrMalformedPayload, "missing timestamp")
	}

	kind := Kind(*w.Type)
	if !kind.Valid() {
		return ContentReference{}, fail("deserialize", ErrUnsupportedKind, fmt.Sprintf("%q", *w.Type))
	}
	if err := ValidateContentURL(*w.Content); err != nil {
		return ContentReference{}, fail("deserialize", ErrMalformedPayload, err.Error())
	}
	ts, err := time.Parse(time.RFC3339Nano, *w.Timestamp)
	if err != nil {
		return ContentReference{}, fail("deserialize", ErrMalformedPayload, "timestamp: "+err.Error())
	}

	ref := ContentReference{
		Kind:      kind,
		Content:   *w.Content,
		CreatedAt: ts.UTC(),
	}
	if w.App != nil {
		ref.Origin = *w.App
	}
	return ref, nil
}

// DecodeEnvelope applies one percent-decoding pass to a bare data value and
// deserializes the result.
func DecodeEnvelope(encoded string) (ContentReference, error) {
	text, err := uricomponent.Unescape(encoded)
	if err != nil {
		return ContentReference{}, fail("deserialize", ErrMalformedPayload, err.Error())
	}
	return Deserialize([]byte(text))
}
