// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes PhotoPlay payload tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/photoplay/internal/index"
	"github.com/starford/photoplay/internal/payload"
	"github.com/starford/photoplay/internal/playservice"
	"github.com/starford/photoplay/internal/storageurl"
)

const envelopeFormatURI = "photoplay://envelope-format"

// Server wraps the MCP server with PhotoPlay tools.
type Server struct {
	mcp *server.MCPServer
	svc *playservice.Service
}

// New creates a new MCP server with all PhotoPlay tools registered.
func New(svc *playservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"PhotoPlay",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("assemble_payload",
		mcp.WithDescription("Build a scan-target URL for a web link. The returned scan_url is what goes into the QR code. "+
			"Recordings are created with upload_voice instead."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Absolute URL the code should open")),
		mcp.WithString("kind", mcp.Description("Payload kind; only \"link\" is accepted here")),
	), s.assemblePayload)

	s.mcp.AddTool(mcp.NewTool("upload_voice",
		mcp.WithDescription("Store a voice recording and build the scan-target URL that plays it. "+
			"Accepts webm, ogg, mp3, m4a and wav up to 25 MB."),
		mcp.WithString("source", mcp.Required(), mcp.Description("base64 data URI (data:audio/webm;base64,...) or http(s) URL of the recording")),
		mcp.WithString("filename", mcp.Description("Optional file name, e.g. greeting.webm")),
	), s.uploadVoice)

	s.mcp.AddTool(mcp.NewTool("resolve_payload",
		mcp.WithDescription("Decode a scanned URL into its envelope (type, content, timestamp, app)."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The full scanned URL including ?data=")),
	), s.resolvePayload)

	s.mcp.AddTool(mcp.NewTool("normalize_storage_url",
		mcp.WithDescription("Rebuild a storage download URL so the object path separator is escaped as %2F. "+
			"URLs that are already escaped are returned unchanged."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Download URL as reported by storage")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Object path, e.g. audio/clip.webm")),
		mcp.WithString("token", mcp.Description("Download token; taken from the URL when omitted")),
	), s.normalizeStorageURL)

	s.mcp.AddTool(mcp.NewTool("list_payloads",
		mcp.WithDescription("List codes created on this instance, newest first."),
		mcp.WithString("kind", mcp.Description("Filter by kind: voice or link")),
		mcp.WithString("query", mcp.Description("Substring of the content URL")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50, max 200)")),
	), s.listPayloads)

	s.mcp.AddTool(mcp.NewTool("get_envelope_contract",
		mcp.WithDescription("Returns the envelope and scan-target format. "+
			"Call this before building or inspecting codes by hand."),
	), s.getEnvelopeContract)

	// Resource: envelope format contract.
	s.mcp.AddResource(
		mcp.NewResource(envelopeFormatURI, "Envelope Format Contract",
			mcp.WithResourceDescription("Content envelope and scan-target URL format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEnvelopeFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) assemblePayload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if kind, kErr := req.RequireString("kind"); kErr == nil && kind != "" && kind != string(payload.KindLink) {
		if kind == string(payload.KindVoice) {
			return mcp.NewToolResultError("voice payloads are created with upload_voice"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("unsupported kind: %q", kind)), nil
	}

	d, err := s.svc.CreateLink(ctx, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(d)
}

func (s *Server) resolvePayload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scanURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Resolve(ctx, scanURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) normalizeStorageURL(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	objectPath, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	token, tErr := req.RequireString("token")
	if tErr != nil || token == "" {
		token = storageurl.TokenFromURL(rawURL)
	}

	endpoint, ok := storageurl.EndpointFromURL(rawURL)
	if !ok {
		endpoint = s.svc.StorageEndpoint()
	}
	if endpoint == "" {
		return mcp.NewToolResultError("cannot determine the storage endpoint of " + rawURL), nil
	}
	return mcp.NewToolResultText(storageurl.New(endpoint).Normalize(rawURL, objectPath, token)), nil
}

func (s *Server) listPayloads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := index.ListFilter{Limit: req.GetInt("limit", 50)}
	if v, err := req.RequireString("kind"); err == nil {
		f.Kind = v
	}
	if v, err := req.RequireString("query"); err == nil {
		f.Query = v
	}

	items, total, err := s.svc.ListPayloads(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no payloads found"), nil
	}
	return jsonResult(map[string]any{"payloads": items, "total": total})
}

func (s *Server) getEnvelopeContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EnvelopeFormatContract), nil
}

func (s *Server) readEnvelopeFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      envelopeFormatURI,
			MIMEType: "text/markdown",
			Text:     EnvelopeFormatContract,
		},
	}, nil
}
