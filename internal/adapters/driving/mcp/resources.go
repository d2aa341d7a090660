package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for DocuMind resources.
	uriScheme = "documind://"

	indexURI = uriScheme + "index"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Index == nil {
		return
	}
	s.server.AddResource(&mcp.Resource{
		URI:         indexURI,
		Name:        "index",
		Description: "Collection name, entry count and embedding model of the vector index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)
}

// indexInfo is the JSON body of the index resource.
type indexInfo struct {
	Name           string `json:"name"`
	Count          int    `json:"count"`
	Path           string `json:"path,omitempty"`
	Dimension      int    `json:"dimension,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	Recovery       string `json:"recovery"`
}

// handleIndexResource returns the index statistics and how the index was opened.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index stats: %w", err)
	}

	data, err := json.MarshalIndent(indexInfo{
		Name:           stats.Name,
		Count:          stats.Count,
		Path:           stats.Path,
		Dimension:      stats.Dimension,
		EmbeddingModel: stats.EmbeddingModel,
		Recovery:       string(s.ports.Index.Recovery()),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling index stats: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
