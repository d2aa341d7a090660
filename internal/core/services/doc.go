// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The ingestion path is extract, chunk, embed, index. The question path is
// embed, query, build context, generate.
package services
