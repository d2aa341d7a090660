// Package worker is the process side of the generation worker boundary.
//
// The hidden "documind worker" command parses its flags into a Request and
// calls Serve, which writes exactly one JSON object to stdout. Every failure,
// including a panic in the LLM adapter, is reported inside that object so
// the process always exits 0. Logs belong on stderr.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/logger"
)

// Request is one invocation of the worker process.
type Request struct {
	Check       bool
	RequestID   string
	Mode        domain.GenerationMode
	Model       string
	System      string
	User        string
	Temperature float64
	NumPredict  int
}

// LLMFactory creates the LLM service for a model. An empty model means the
// configured default.
type LLMFactory func(model string) (driven.LLMService, error)

// Serve handles req and writes the response to w as a single JSON line.
func Serve(ctx context.Context, req Request, newLLM LLMFactory, w io.Writer) error {
	resp := Handle(ctx, req, newLLM)
	if resp.OK {
		logger.Debug("worker request %s ok", req.RequestID)
	} else {
		logger.Warn("worker request %s failed: %s", req.RequestID, resp.Error)
	}
	return json.NewEncoder(w).Encode(resp)
}

// Handle runs the check or the generation and returns its response.
func Handle(ctx context.Context, req Request, newLLM LLMFactory) (resp domain.WorkerResponse) {
	defer func() {
		if r := recover(); r != nil {
			resp = domain.WorkerResponse{OK: false, Error: fmt.Sprintf("worker panic: %v", r)}
		}
	}()

	if newLLM == nil {
		return failure(fmt.Errorf("%w: no LLM configured", domain.ErrLLMUnavailable))
	}
	llm, err := newLLM(req.Model)
	if err != nil {
		return failure(err)
	}
	defer llm.Close()

	if req.Check {
		if err := llm.Ping(ctx); err != nil {
			return failure(err)
		}
		return domain.WorkerResponse{OK: true}
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.GenerationModeChat
	}
	if !mode.IsValid() {
		return failure(fmt.Errorf("%w: mode must be chat or summary, got %q", domain.ErrInvalidInput, mode))
	}

	var messages []driven.ChatMessage
	if req.System != "" {
		messages = append(messages, driven.ChatMessage{Role: "system", Content: req.System})
	}
	if req.User != "" {
		messages = append(messages, driven.ChatMessage{Role: "user", Content: req.User})
	}
	if len(messages) == 0 {
		return failure(fmt.Errorf("%w: empty prompt", domain.ErrInvalidInput))
	}

	logger.Debug("worker request %s: mode=%s model=%s", req.RequestID, mode, req.Model)
	answer, err := llm.Chat(ctx, messages, driven.ChatOptions{
		Model:       req.Model,
		MaxTokens:   req.NumPredict,
		Temperature: req.Temperature,
	})
	if err != nil {
		return failure(err)
	}
	return domain.WorkerResponse{OK: true, Answer: answer}
}

func failure(err error) domain.WorkerResponse {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "Unknown error"
	}
	return domain.WorkerResponse{OK: false, Error: msg}
}
