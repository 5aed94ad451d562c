package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the URI scheme for spaces resources.
const uriScheme = "spaces://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "spaces",
		Name:        "spaces",
		Description: "All spaces with their total document size",
		MIMEType:    "application/json",
	}, s.handleSpacesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "spaces/{space}/files",
		Name:        "space-files",
		Description: "Files of a space and whether they are indexed",
		MIMEType:    "application/json",
	}, s.handleFilesResource)
}

// handleSpacesResource lists every space.
func (s *Server) handleSpacesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Spaces == nil {
		return jsonResult(req.Params.URI, []any{})
	}

	spaces, err := s.ports.Spaces.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing spaces: %w", err)
	}

	type spaceInfo struct {
		Name        string  `json:"name"`
		TotalSizeMB float64 `json:"total_size_mb"`
	}
	infos := make([]spaceInfo, len(spaces))
	for i, sp := range spaces {
		infos[i] = spaceInfo{Name: sp.Name, TotalSizeMB: sp.TotalSizeMB}
	}
	return jsonResult(req.Params.URI, infos)
}

// handleFilesResource lists the files of one space.
func (s *Server) handleFilesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Spaces == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	space := extractSpace(req.Params.URI)
	if space == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	files, err := s.ports.Spaces.Files(ctx, space)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	type fileInfo struct {
		Name    string  `json:"name"`
		SizeMB  float64 `json:"size_mb"`
		Indexed bool    `json:"indexed"`
	}
	infos := make([]fileInfo, len(files))
	for i, f := range files {
		infos[i] = fileInfo{Name: f.Name, SizeMB: f.SizeMB, Indexed: f.Indexed}
	}
	return jsonResult(req.Params.URI, infos)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSpace extracts the space name from spaces://spaces/{space}/files.
// The name may be percent-encoded.
func extractSpace(uri string) string {
	const prefix = uriScheme + "spaces/"
	const suffix = "/files"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if raw == "" || strings.Contains(raw, "/") {
		return ""
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return ""
	}
	return name
}
