// Package mcp provides an MCP (Model Context Protocol) server adapter for DocuMind.
// It lets AI assistants search the indexed documents and ask grounded questions.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")

// ErrEmptyQuery is returned by tools called without a query.
var ErrEmptyQuery = errors.New("mcp: query is required")
