package mcp

import (
	"github.com/custodia-labs/documind/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Retriever provides semantic search.
	Retriever driving.Retriever

	// Answer provides grounded answers. The ask tool is only registered
	// when it is set.
	Answer driving.AnswerService

	// Index exposes index statistics. The index_stats tool and the index
	// resource are only registered when it is set.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
