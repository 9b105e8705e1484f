// Package playservice coordinates storage, the payload protocol and the
// payload index for the HTTP and MCP surfaces.
package playservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/photoplay/internal/checksum"
	"github.com/starford/photoplay/internal/index"
	"github.com/starford/photoplay/internal/metrics"
	"github.com/starford/photoplay/internal/payload"
	"github.com/starford/photoplay/internal/storage"
	"github.com/starford/photoplay/internal/storageurl"
)

// Event kinds published to the Notifier.
const (
	EventCreated = "created"
	EventScanned = "scanned"
	EventDeleted = "deleted"
)

// Notifier receives payload lifecycle events.
type Notifier interface {
	PublishPayloadEvent(kind, id string)
}

// PayloadDetail is the full representation of an assembled payload.
type PayloadDetail struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Content       string     `json:"content"`
	App           string     `json:"app"`
	CreatedAt     time.Time  `json:"created_at"`
	ScanURL       string     `json:"scan_url"`
	ObjectPath    string     `json:"object_path,omitempty"`
	ScanCount     int        `json:"scan_count"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
}

// Resolution is what a scan hands back to the consumer.
type Resolution struct {
	ID        string `json:"id"`
	Kind      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	App       string `json:"app"`
	// Known is true when the payload was assembled by this instance.
	Known bool `json:"known"`
}

// Service coordinates storage, payload assembly/resolution and the index.
type Service struct {
	assembler  *payload.Assembler
	resolver   *payload.Resolver
	normalizer *storageurl.Normalizer
	store      storage.Provider
	db         index.PayloadIndex
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time
	objectID   func() string
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the event sink.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithClock overrides the time source for scan timestamps and generated filenames.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithObjectID overrides the generator of the suffix that keeps recording
// paths unique.
func WithObjectID(gen func() string) Option { return func(s *Service) { s.objectID = gen } }

// NewService creates a new payload service.
func NewService(asm *payload.Assembler, res *payload.Resolver, store storage.Provider, db index.PayloadIndex, opts ...Option) *Service {
	s := &Service{
		assembler:  asm,
		resolver:   res,
		normalizer: storageurl.New(store.Endpoint()),
		store:      store,
		db:         db,
		logger:     slog.Default(),
		now:        time.Now,
		objectID:   shortID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assembler returns the assembler the service builds scan targets with.
func (s *Service) Assembler() *payload.Assembler { return s.assembler }

// StorageEndpoint returns the object endpoint recordings are uploaded to, or
// "" when storage is not configured.
func (s *Service) StorageEndpoint() string { return s.normalizer.Base() }

// CreateLink assembles a scan target for a user-entered URL.
func (s *Service) CreateLink(ctx context.Context, content string) (*PayloadDetail, error) {
	ref, err := s.assembler.Build(payload.KindLink, content)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, ref, "")
}

// CreateVoice uploads a recording under a path no other payload uses,
// normalizes its download URL and assembles a scan target for it. Storage
// failures surface as storage.ErrStorageUnavailable or storage.ErrUploadFailed.
func (s *Service) CreateVoice(ctx context.Context, u VoiceUpload) (*PayloadDetail, error) {
	path, contentType, err := prepareVoice(u, s.now(), s.objectID())
	if err != nil {
		return nil, err
	}

	obj, err := s.store.Put(ctx, path, u.Data, contentType)
	if err != nil {
		metrics.StorageUploads.WithLabelValues(uploadResult(err)).Inc()
		return nil, err
	}
	metrics.StorageUploads.WithLabelValues("ok").Inc()

	token := obj.Token
	if token == "" {
		token = storageurl.TokenFromURL(obj.URL)
	}
	contentURL := s.normalizer.Normalize(obj.URL, obj.Path, token)
	if contentURL != obj.URL {
		metrics.StorageURLsRepaired.Inc()
		s.logger.Warn("storage url lacked separator escape, rebuilt",
			slog.String("raw_url", obj.URL),
			slog.String("url", contentURL))
	}

	ref, err := s.assembler.Build(payload.KindVoice, contentURL)
	if err != nil {
		s.discardObject(ctx, obj.Path)
		return nil, err
	}
	detail, err := s.record(ctx, ref, obj.Path)
	if err != nil {
		s.discardObject(ctx, obj.Path)
		return nil, err
	}
	return detail, nil
}

// Resolve decodes a scanned URL and records the scan when the payload is known.
func (s *Service) Resolve(ctx context.Context, scanURL string) (*Resolution, error) {
	ref, err := s.resolver.Resolve(scanURL)
	metrics.PayloadsResolved.WithLabelValues(resolveOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	id, err := envelopeID(ref)
	if err != nil {
		return nil, err
	}
	known, err := s.db.RecordScan(ctx, id, s.now())
	if err != nil {
		s.logger.Error("record scan failed", slog.String("id", id), slog.String("error", err.Error()))
	}
	if known {
		s.publish(EventScanned, id)
	}

	return &Resolution{
		ID:        id,
		Kind:      string(ref.Kind),
		Content:   ref.Content,
		Timestamp: ref.CreatedAt.Format(payload.TimestampLayout),
		App:       ref.Origin,
		Known:     known,
	}, nil
}

// GetPayload returns a payload from the index.
func (s *Service) GetPayload(ctx context.Context, id string) (*PayloadDetail, error) {
	row, err := s.db.GetPayload(ctx, id)
	if err != nil {
		return nil, err
	}
	return detailFromRow(row), nil
}

// ListPayloads returns a page of payloads and the total count.
func (s *Service) ListPayloads(ctx context.Context, f index.ListFilter) ([]PayloadDetail, int, error) {
	rows, total, err := s.db.ListPayloads(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	items := make([]PayloadDetail, len(rows))
	for i := range rows {
		items[i] = *detailFromRow(&rows[i])
	}
	return items, total, nil
}

// DeletePayload removes a payload and, for recordings, its stored object.
// Codes already printed stop resolving to playable audio.
func (s *Service) DeletePayload(ctx context.Context, id string) error {
	row, err := s.db.DeletePayload(ctx, id)
	if err != nil {
		return err
	}
	if row.ObjectPath != "" {
		s.discardObject(ctx, row.ObjectPath)
	}
	s.publish(EventDeleted, id)
	return nil
}

func (s *Service) record(ctx context.Context, ref payload.ContentReference, objectPath string) (*PayloadDetail, error) {
	scanURL, err := s.assembler.Assemble(ref)
	if err != nil {
		return nil, err
	}
	id, err := envelopeID(ref)
	if err != nil {
		return nil, err
	}
	row := index.PayloadRow{
		ID:         id,
		Kind:       string(ref.Kind),
		Content:    ref.Content,
		App:        ref.Origin,
		CreatedAt:  ref.CreatedAt,
		ScanURL:    scanURL,
		ObjectPath: objectPath,
	}
	if err := s.db.UpsertPayload(ctx, row); err != nil {
		return nil, err
	}
	metrics.PayloadsAssembled.WithLabelValues(string(ref.Kind)).Inc()
	s.publish(EventCreated, id)
	s.logger.Info("payload assembled",
		slog.String("id", id),
		slog.String("kind", string(ref.Kind)),
		slog.Int("scan_url_len", len(scanURL)))
	return detailFromRow(&row), nil
}

func (s *Service) discardObject(ctx context.Context, path string) {
	if err := s.store.Delete(ctx, path); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("delete object failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (s *Service) publish(kind, id string) {
	if s.notifier != nil {
		s.notifier.PublishPayloadEvent(kind, id)
	}
}

// envelopeID derives the payload id from the canonical envelope text, so a
// resolved reference maps back to the row it was assembled from.
func envelopeID(ref payload.ContentReference) (string, error) {
	text, err := payload.Serialize(ref)
	if err != nil {
		return "", err
	}
	return checksum.ID(text), nil
}

func shortID() string {
	return uuid.NewString()[:8]
}

func detailFromRow(r *index.PayloadRow) *PayloadDetail {
	return &PayloadDetail{
		ID:            r.ID,
		Kind:          r.Kind,
		Content:       r.Content,
		App:           r.App,
		CreatedAt:     r.CreatedAt,
		ScanURL:       r.ScanURL,
		ObjectPath:    r.ObjectPath,
		ScanCount:     r.ScanCount,
		LastScannedAt: r.LastScannedAt,
	}
}

func uploadResult(err error) string {
	if errors.Is(err, storage.ErrStorageUnavailable) {
		return "unavailable"
	}
	return "failed"
}

func resolveOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, payload.ErrMissingPayload):
		return "missing"
	case errors.Is(err, payload.ErrUnsupportedKind):
		return "unsupported"
	default:
		return "malformed"
	}
}
