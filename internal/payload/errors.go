package payload

import "errors"

var (
	// ErrInvalidContentURL is returned when content is not an absolute URL at construction time.
	ErrInvalidContentURL = errors.New("invalid content url")
	// ErrMissingPayload is returned when a scan target carries no data parameter.
	ErrMissingPayload = errors.New("missing payload")
	// ErrMalformedPayload is returned when the envelope cannot be parsed into a reference.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnsupportedKind is returned for a syntactically valid type that is not accepted.
	ErrUnsupportedKind = errors.New("unsupported kind")
)

// Error records the operation that failed and the sentinel it failed with.
type Error struct {
	Op     string // "serialize", "deserialize", "assemble", "resolve", "new"
	Err    error
	Detail string
}

func (e *Error) Error() string {
	msg := "payload: " + e.Op + ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func fail(op string, err error, detail string) error {
	return &Error{Op: op, Err: err, Detail: detail}
}
