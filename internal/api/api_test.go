package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"

	"github.com/starford/photoplay/internal/metrics"
	"github.com/starford/photoplay/internal/payload"
	"github.com/starford/photoplay/internal/playservice"
	"github.com/starford/photoplay/internal/storage"
	"github.com/starford/photoplay/internal/testutil"
	"github.com/starford/photoplay/internal/uricomponent"
)

// testEnv sets up a temp bucket, SQLite DB, service, and the full route tree.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*playservice.Service, http.Handler) {
	t.Helper()
	_, bucket := testutil.TestBucket(t)
	return testEnvWithStore(t, authToken, bucket, nil)
}

func testEnvWithStore(t *testing.T, authToken string, store storage.Provider, sseHandler http.Handler) (*playservice.Service, http.Handler) {
	t.Helper()
	enabled := authToken != ""

	svc := playservice.NewService(testutil.TestAssembler(t), payload.NewResolver(), store, testutil.TestDB(t))

	r := chi.NewRouter()
	r.Use(Metrics)
	r.Mount("/api", NewRouter(svc, enabled, authToken, sseHandler))
	r.Mount("/play", NewPlayRouter(svc))
	r.Mount("/v0/b/{bucket}/o", NewObjectHandler(store, "photoplay", enabled, authToken).Routes())
	return svc, r
}

func do(t *testing.T, router http.Handler, method, target string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, router http.Handler, target string, v any) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(v)
	return do(t, router, http.MethodPost, target, bytes.NewReader(body), nil)
}

func uploadVoice(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()
	return do(t, router, http.MethodPost, "/api/payloads/voice", &buf,
		map[string]string{"Content-Type": mw.FormDataContentType()})
}

// requestURI turns an absolute URL into the request target the router sees,
// keeping percent-escapes in the path intact.
func requestURI(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u.RequestURI()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body %s)", v, err, w.Body.String())
	}
	return v
}

func TestCreateAndGetLinkPayload(t *testing.T) {
	_, router := testEnv(t, "")

	w := postJSON(t, router, "/api/payloads", map[string]string{"kind": "link", "content": "https://example.com/menu?x=1&y=2"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[PayloadDetail](t, w)
	if created.Kind != "link" || created.App != payload.DefaultOrigin {
		t.Errorf("created = %+v", created)
	}
	if !strings.HasPrefix(created.ScanURL, testutil.Base+"?data=%7B") {
		t.Errorf("scan url = %q", created.ScanURL)
	}

	w = do(t, router, http.MethodGet, "/api/payloads/"+created.ID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	got := decode[PayloadDetail](t, w)
	if got.Content != "https://example.com/menu?x=1&y=2" || got.ScanURL != created.ScanURL {
		t.Errorf("got = %+v", got)
	}
}

func TestCreatePayloadErrors(t *testing.T) {
	_, router := testEnv(t, "")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing content", `{"kind":"link"}`, http.StatusBadRequest},
		{"relative url", `{"kind":"link","content":"/menu"}`, http.StatusBadRequest},
		{"voice without upload", `{"kind":"voice","content":"https://example.com/a.webm"}`, http.StatusBadRequest},
		{"unknown kind", `{"kind":"video","content":"https://example.com/a.mp4"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/payloads", strings.NewReader(tt.body), nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestVoiceUploadScanAndPlay(t *testing.T) {
	_, router := testEnv(t, "")
	audio := testutil.WebM("recording")

	w := uploadVoice(t, router, "clip.webm", audio)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[PayloadDetail](t, w)
	if !strings.HasPrefix(created.ObjectPath, "audio/clip-") || !strings.HasSuffix(created.ObjectPath, ".webm") {
		t.Errorf("object path = %q", created.ObjectPath)
	}
	if !strings.HasPrefix(created.Content, testutil.Endpoint+"/"+uricomponent.Escape(created.ObjectPath)+"?alt=media&token=") {
		t.Errorf("content = %q", created.Content)
	}

	// Scan the code.
	w = do(t, router, http.MethodGet, requestURI(t, created.ScanURL), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("play status = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[Resolution](t, w)
	if res.Kind != "voice" || res.Content != created.Content || !res.Known || res.ID != created.ID {
		t.Errorf("resolution = %+v", res)
	}
	if res.Timestamp != "2025-01-01T00:00:00.000Z" {
		t.Errorf("timestamp = %q", res.Timestamp)
	}

	// Fetch the recording the resolved content points at.
	w = do(t, router, http.MethodGet, requestURI(t, res.Content), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("media status = %d, body = %s", w.Code, w.Body.String())
	}
	if !bytes.Equal(w.Body.Bytes(), audio) {
		t.Error("media body mismatch")
	}
	if ct := w.Header().Get("Content-Type"); ct != "audio/webm" {
		t.Errorf("content type = %q", ct)
	}

	w = do(t, router, http.MethodGet, "/api/payloads/"+created.ID, nil, nil)
	if got := decode[PayloadDetail](t, w); got.ScanCount != 1 || got.LastScannedAt == nil {
		t.Errorf("scan stats = %d, %v", got.ScanCount, got.LastScannedAt)
	}
}

func TestVoiceUploadErrors(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadVoice(t, router, "notes.txt", []byte("plain text"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-audio upload = %d, want 400", w.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()
	w = do(t, router, http.MethodPost, "/api/payloads/voice", &buf,
		map[string]string{"Content-Type": mw.FormDataContentType()})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestVoiceUploadStorageUnavailable(t *testing.T) {
	_, router := testEnvWithStore(t, "", storage.Unconfigured{}, nil)

	w := uploadVoice(t, router, "clip.webm", testutil.WebM("x"))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("upload = %d, want 503", w.Code)
	}
	if body := decode[errResponse](t, w); body.Code != "storage_unavailable" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestPlayErrors(t *testing.T) {
	_, router := testEnv(t, "")

	video := `{"type":"video","content":"https://example.com/a.mp4","timestamp":"2025-01-01T00:00:00.000Z","app":"PhotoPlay"}`
	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"no data", "/play", http.StatusBadRequest, "missing_payload"},
		{"empty data", "/play?data=", http.StatusBadRequest, "missing_payload"},
		{"not json", "/play?data=%7Bnot-json", http.StatusBadRequest, "malformed_payload"},
		{"unsupported kind", "/play?data=" + uricomponent.Escape(video), http.StatusUnprocessableEntity, "unsupported_kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodGet, tt.target, nil, nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			if body := decode[errResponse](t, w); body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	svc, router := testEnv(t, "")

	d, err := svc.CreateLink(context.Background(), "https://example.com/menu")
	if err != nil {
		t.Fatal(err)
	}
	w := postJSON(t, router, "/api/resolve", ResolveRequest{URL: d.ScanURL})
	if w.Code != http.StatusOK {
		t.Fatalf("resolve = %d, body = %s", w.Code, w.Body.String())
	}
	if res := decode[Resolution](t, w); !res.Known || res.Content != "https://example.com/menu" {
		t.Errorf("resolution = %+v", res)
	}

	// A code assembled by another instance still resolves, just unknown here.
	other, err := payload.NewAssembler("https://elsewhere.example/play",
		payload.WithClock(func() time.Time { return testutil.FixedTime.Add(time.Hour) }))
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := other.AssemblePayload(payload.KindLink, "https://example.com/other")
	if err != nil {
		t.Fatal(err)
	}
	w = postJSON(t, router, "/api/resolve", ResolveRequest{URL: foreign})
	if w.Code != http.StatusOK {
		t.Fatalf("resolve foreign = %d", w.Code)
	}
	if res := decode[Resolution](t, w); res.Known || res.Content != "https://example.com/other" {
		t.Errorf("foreign resolution = %+v", res)
	}

	w = postJSON(t, router, "/api/resolve", ResolveRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty url = %d, want 400", w.Code)
	}
}

func TestListAndDeletePayloads(t *testing.T) {
	_, router := testEnv(t, "")

	for _, c := range []string{"https://example.com/a", "https://example.com/b"} {
		if w := postJSON(t, router, "/api/payloads", CreatePayloadRequest{Content: c}); w.Code != http.StatusCreated {
			t.Fatalf("create %s = %d", c, w.Code)
		}
	}
	if w := uploadVoice(t, router, "clip.ogg", []byte("OggS-body")); w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}

	list := decode[PayloadListResponse](t, do(t, router, http.MethodGet, "/api/payloads", nil, nil))
	if list.Total != 3 || len(list.Payloads) != 3 {
		t.Fatalf("list = %d/%d, want 3", len(list.Payloads), list.Total)
	}

	links := decode[PayloadListResponse](t, do(t, router, http.MethodGet, "/api/payloads?kind=link&limit=1", nil, nil))
	if links.Total != 2 || len(links.Payloads) != 1 {
		t.Errorf("links = %d/%d, want 1/2", len(links.Payloads), links.Total)
	}

	voice := decode[PayloadListResponse](t, do(t, router, http.MethodGet, "/api/payloads?kind=voice", nil, nil))
	if voice.Total != 1 {
		t.Fatalf("voice total = %d", voice.Total)
	}
	recording := voice.Payloads[0]

	w := do(t, router, http.MethodDelete, "/api/payloads/"+recording.ID, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/api/payloads/"+recording.ID, nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodDelete, "/api/payloads/"+recording.ID, nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
	// The recording is gone with it.
	if w := do(t, router, http.MethodGet, requestURI(t, recording.Content), nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("media after delete = %d, want 404", w.Code)
	}
}

func TestGetPayload_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/api/payloads/0000000000000000", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing payload = %d, want 404", w.Code)
	}
}

// Object endpoint tests.

func TestObjectEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	audio := testutil.WebM("obj")

	w := do(t, router, http.MethodPost, "/v0/b/photoplay/o?name=audio%2Fdirect.webm", bytes.NewReader(audio),
		map[string]string{"Content-Type": "audio/webm"})
	if w.Code != http.StatusOK {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[storage.Resource](t, w)
	if res.Name != "audio/direct.webm" || res.Bucket != "photoplay" || res.DownloadTokens == "" || res.Size != "7" {
		t.Fatalf("resource = %+v", res)
	}
	media := "/v0/b/photoplay/o/audio%2Fdirect.webm?alt=media&token=" + res.DownloadTokens

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"escaped separator", media, http.StatusOK},
		{"literal separator", "/v0/b/photoplay/o/audio/direct.webm?alt=media&token=" + res.DownloadTokens, http.StatusNotFound},
		{"wrong token", "/v0/b/photoplay/o/audio%2Fdirect.webm?alt=media&token=nope", http.StatusForbidden},
		{"no token", "/v0/b/photoplay/o/audio%2Fdirect.webm?alt=media", http.StatusForbidden},
		{"wrong bucket", "/v0/b/other/o/audio%2Fdirect.webm?alt=media&token=" + res.DownloadTokens, http.StatusNotFound},
		{"missing object", "/v0/b/photoplay/o/audio%2Fnope.webm?alt=media&token=x", http.StatusNotFound},
		{"metadata", "/v0/b/photoplay/o/audio%2Fdirect.webm", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodGet, tt.target, nil, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}

	w = do(t, router, http.MethodGet, media, nil, map[string]string{"Range": "bytes=0-3"})
	if w.Code != http.StatusPartialContent || !bytes.Equal(w.Body.Bytes(), audio[:4]) {
		t.Errorf("range = %d %x", w.Code, w.Body.Bytes())
	}

	if w := do(t, router, http.MethodDelete, "/v0/b/photoplay/o/audio%2Fdirect.webm", nil, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, media, nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("media after delete = %d, want 404", w.Code)
	}
}

func TestObjectUploadRejectsTraversal(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/v0/b/photoplay/o?name=..%2F..%2Fescape.webm", strings.NewReader("x"), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("traversal upload = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/v0/b/photoplay/o", strings.NewReader("x"), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unnamed upload = %d, want 400", w.Code)
	}
}

// HTTPStorageAgainstObjectEndpoint drives the HTTP storage client against
// this service's own object routes.
func TestHTTPStorageAgainstObjectEndpoint(t *testing.T) {
	_, bucket := testutil.TestBucket(t)
	_, router := testEnvWithStore(t, "secret", bucket, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	client := storage.NewHTTP(srv.URL+"/v0/b/photoplay/o", "secret", 5*time.Second)
	ctx := context.Background()

	obj, err := client.Put(ctx, "audio/remote.webm", testutil.WebM("remote"), "audio/webm")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !strings.Contains(obj.URL, "/o/audio%2Fremote.webm?alt=media&token=") {
		t.Errorf("url = %q", obj.URL)
	}
	got, data, err := client.Get(ctx, "audio/remote.webm")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Token != obj.Token || string(data) != string(testutil.WebM("remote")) {
		t.Errorf("got %+v, %q", got, data)
	}

	unauth := storage.NewHTTP(srv.URL+"/v0/b/photoplay/o", "", 5*time.Second)
	if _, err := unauth.Put(ctx, "audio/x.webm", []byte("x"), "audio/webm"); err == nil {
		t.Error("unauthenticated Put should fail")
	}
}

// Auth tests.

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/api/payloads", nil, map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	if w := do(t, router, http.MethodGet, "/api/payloads", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret")
	w := do(t, router, http.MethodGet, "/api/payloads", nil, map[string]string{"Authorization": "Bearer wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/api/payloads", nil, nil); w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
}

func TestPublicRoutesWithAuthEnabled(t *testing.T) {
	svc, router := testEnv(t, "secret")

	d, err := svc.CreateLink(context.Background(), "https://example.com/menu")
	if err != nil {
		t.Fatal(err)
	}
	if w := do(t, router, http.MethodGet, requestURI(t, d.ScanURL), nil, nil); w.Code != http.StatusOK {
		t.Errorf("play with auth enabled = %d, want 200", w.Code)
	}

	// Uploads need the operator token, downloads only the object token.
	w := do(t, router, http.MethodPost, "/v0/b/photoplay/o?name=audio%2Fa.webm", bytes.NewReader(testutil.WebM("a")), nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("upload without auth = %d, want 401", w.Code)
	}
	w = do(t, router, http.MethodPost, "/v0/b/photoplay/o?name=audio%2Fa.webm", bytes.NewReader(testutil.WebM("a")),
		map[string]string{"Authorization": "Bearer secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("upload with auth = %d", w.Code)
	}
	res := decode[storage.Resource](t, w)

	if w := do(t, router, http.MethodGet, "/v0/b/photoplay/o/audio%2Fa.webm", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("metadata without auth = %d, want 401", w.Code)
	}
	w = do(t, router, http.MethodGet, "/v0/b/photoplay/o/audio%2Fa.webm?alt=media&token="+res.DownloadTokens, nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("media with object token = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, bucket := testutil.TestBucket(t)
	_, router := testEnvWithStore(t, "secret", bucket, blockingSSE)

	if w := do(t, router, http.MethodGet, "/api/events", nil, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, bucket := testutil.TestBucket(t)
	_, router := testEnvWithStore(t, "tok", bucket, blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
}

// Middleware tests.

func counterValue(t *testing.T, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := metrics.HTTPRequestsTotal.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := counterValue(t, http.MethodGet, "/things/{id}", "418")
	do(t, r, http.MethodGet, "/things/1", nil, nil)
	do(t, r, http.MethodGet, "/things/2", nil, nil)
	if got := counterValue(t, http.MethodGet, "/things/{id}", "418") - before; got != 2 {
		t.Errorf("counter delta = %v, want 2", got)
	}
}

func TestMetricsKeepsFlusher(t *testing.T) {
	flushed := false
	h := Metrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("wrapped writer lost http.Flusher")
		}
		f.Flush()
		flushed = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events", nil))
	if !flushed {
		t.Error("handler did not run")
	}
}

func TestCORS(t *testing.T) {
	r := chi.NewRouter()
	r.Use(CORS(nil))
	r.Get("/play", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	w := do(t, r, http.MethodGet, "/play", nil, map[string]string{"Origin": "https://qr-ar-voice.web.app"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q, want *", got)
	}
}
