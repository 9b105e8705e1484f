package api

import (
	"github.com/starford/photoplay/internal/playservice"
)

// CreatePayloadRequest is the request body for assembling a link payload.
type CreatePayloadRequest struct {
	Kind    string `json:"kind" example:"link"`
	Content string `json:"content" example:"https://example.com/menu" validate:"required"`
}

// ResolveRequest is the request body for resolving a scanned URL.
type ResolveRequest struct {
	URL string `json:"url" example:"https://qr-ar-voice.web.app/play?data=%7B...%7D" validate:"required"`
}

// PayloadDetail is the full payload response type (aliased from the domain layer).
type PayloadDetail = playservice.PayloadDetail

// Resolution is the resolved-reference response type (aliased from the domain layer).
type Resolution = playservice.Resolution

// PayloadListResponse wraps paginated payload listings.
type PayloadListResponse struct {
	Payloads []PayloadDetail `json:"payloads" validate:"required"`
	Total    int             `json:"total" example:"42" validate:"required"`
}
