package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/photoplay/internal/index"
	"github.com/starford/photoplay/internal/payload"
	"github.com/starford/photoplay/internal/playservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *playservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *playservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListPayloads handles GET /api/payloads.
//
//	@Summary		List assembled payloads, newest first
//	@Tags			payloads
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			kind	query		string	false	"Filter by kind"	Enums(voice, link)
//	@Param			q		query		string	false	"Substring of the content URL"
//	@Success		200		{object}	PayloadListResponse
//	@Security		BearerAuth
//	@Router			/payloads [get]
func (h *Handler) ListPayloads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListPayloads(r.Context(), index.ListFilter{
		Limit:  limit,
		Offset: offset,
		Kind:   q.Get("kind"),
		Query:  q.Get("q"),
	})
	if err != nil {
		writeError(w, "list payloads", err)
		return
	}
	if items == nil {
		items = []PayloadDetail{}
	}
	writeJSON(w, http.StatusOK, PayloadListResponse{Payloads: items, Total: total})
}

// GetPayload handles GET /api/payloads/{id}.
//
//	@Summary		Get a single payload
//	@Tags			payloads
//	@Produce		json
//	@Param			id	path		string	true	"Payload id"
//	@Success		200	{object}	PayloadDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/payloads/{id} [get]
func (h *Handler) GetPayload(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPayload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get payload", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreatePayload handles POST /api/payloads.
//
//	@Summary		Assemble a scan target for a link
//	@Tags			payloads
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreatePayloadRequest	true	"Link to encode"
//	@Success		201		{object}	PayloadDetail
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/payloads [post]
func (h *Handler) CreatePayload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreatePayloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	if req.Kind != "" {
		kind, err := payload.ParseKind(req.Kind)
		if err != nil {
			writeError(w, "create payload", err)
			return
		}
		if kind == payload.KindVoice {
			writeJSON(w, http.StatusBadRequest, errorBody("voice payloads are created by uploading to /api/payloads/voice"))
			return
		}
	}

	p, err := h.svc.CreateLink(r.Context(), req.Content)
	if err != nil {
		writeError(w, "create payload", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// CreateVoicePayload handles POST /api/payloads/voice.
//
//	@Summary		Upload a recording and assemble a scan target for it
//	@Tags			payloads
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Recording (webm, ogg, mp3, m4a, wav)"
//	@Success		201		{object}	PayloadDetail
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/payloads/voice [post]
func (h *Handler) CreateVoicePayload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, playservice.MaxVoiceBytes+(1<<20))
	if err := r.ParseMultipartForm(playservice.MaxVoiceBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form or file too large"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	p, err := h.svc.CreateVoice(r.Context(), playservice.VoiceUpload{Filename: header.Filename, Data: data})
	if err != nil {
		writeError(w, "create voice payload", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// DeletePayload handles DELETE /api/payloads/{id}.
//
//	@Summary		Delete a payload and its recording
//	@Tags			payloads
//	@Param			id	path	string	true	"Payload id"
//	@Success		204	"Payload deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/payloads/{id} [delete]
func (h *Handler) DeletePayload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePayload(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete payload", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resolve handles POST /api/resolve.
//
//	@Summary		Resolve a scanned URL
//	@Tags			scan
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ResolveRequest	true	"Scanned URL"
//	@Success		200		{object}	Resolution
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("url is required"))
		return
	}
	h.resolve(w, r, req.URL)
}

// Play handles GET /play, the public endpoint a scanned code opens.
//
//	@Summary		Resolve the scan target this request was made to
//	@Tags			scan
//	@Produce		json
//	@Param			data	query		string	true	"Percent-encoded content envelope"
//	@Success		200		{object}	Resolution
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Router			/play [get]
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, r.URL.RequestURI())
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, scanURL string) {
	res, err := h.svc.Resolve(r.Context(), scanURL)
	if err != nil {
		writeError(w, "resolve", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
