// Package worker is the caller side of the generation worker boundary.
//
// Each request launches the worker command as a child process, passes the
// request as flags and reads back a single JSON object from stdout. The
// caller never fails because of the worker: every error is rendered as an
// answer string.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.GenerationWorker = (*Client)(nil)

// Fallback messages.
const (
	msgCheckFailed   = "generation worker check failed"
	msgUnknownError  = "Unknown error"
	msgNoResponse    = "No response from the generation worker."
	msgNotConfigured = "generation worker command is not configured"
)

// Config configures the worker client.
type Config struct {
	// Command is the executable to launch.
	Command string

	// Args are placed before the request flags, e.g. the "worker" subcommand.
	Args []string

	// Model is passed to the availability probe.
	Model string

	// CheckTimeout bounds the availability probe.
	CheckTimeout time.Duration

	// GenerateTimeout bounds each generation request.
	GenerateTimeout time.Duration
}

// Client implements driven.GenerationWorker over a child process.
// Availability is fixed at construction.
type Client struct {
	cfg          Config
	runner       driven.CommandRunner
	availability domain.WorkerAvailability
	newID        func() string
}

// New creates a client and runs the availability probe once.
func New(ctx context.Context, cfg Config, runner driven.CommandRunner) *Client {
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = domain.DefaultCheckTimeout
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = domain.DefaultGenerateTimeout
	}

	c := &Client{
		cfg:          cfg,
		runner:       runner,
		availability: domain.WorkerAvailability{State: domain.WorkerUninitialized},
		newID:        func() string { return uuid.New().String() },
	}
	c.availability = c.probe(ctx)
	return c
}

// Availability returns the outcome of the construction-time probe.
func (c *Client) Availability() domain.WorkerAvailability {
	return c.availability
}

// probe runs the worker in check mode.
func (c *Client) probe(ctx context.Context) domain.WorkerAvailability {
	logger.Section("Generation Worker Probe")
	logger.Debug("state: %s", domain.WorkerChecking)

	if c.cfg.Command == "" {
		return unavailable(msgNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CheckTimeout)
	defer cancel()

	args := append(append([]string(nil), c.cfg.Args...), "--check")
	if c.cfg.Model != "" {
		args = append(args, "--model", c.cfg.Model)
	}

	res, err := c.runner.Run(ctx, c.cfg.Command, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return unavailable(fmt.Sprintf("generation worker check timed out after %s", c.cfg.CheckTimeout))
		}
		return unavailable(fmt.Sprintf("Failed to execute generation worker: %v", err))
	}

	ok := false
	var reason string
	if stdout := strings.TrimSpace(string(res.Stdout)); stdout != "" {
		var resp domain.WorkerResponse
		if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
			reason = stdout
		} else {
			ok = resp.OK
			if !ok {
				reason = resp.Error
				if reason == "" {
					reason = msgUnknownError
				}
			}
		}
	}
	if ok {
		logger.Info("generation worker available")
		return domain.WorkerAvailability{State: domain.WorkerAvailable}
	}

	if stderr := strings.TrimSpace(string(res.Stderr)); stderr != "" {
		reason = strings.TrimSpace(reason + "\n" + stderr)
	}
	if reason == "" {
		reason = msgCheckFailed
	}
	return unavailable(reason)
}

func unavailable(reason string) domain.WorkerAvailability {
	logger.Warn("generation worker unavailable: %s", reason)
	return domain.WorkerAvailability{State: domain.WorkerUnavailable, Reason: reason}
}

// Generate sends one request to the worker. It never returns an error; the
// answer string describes any failure.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) string {
	if !c.availability.IsAvailable() {
		return "LLM is unavailable: " + c.availability.Reason
	}

	if req.ID == "" {
		req.ID = c.newID()
	}
	if !req.Mode.IsValid() {
		req.Mode = domain.GenerationModeChat
	}
	if req.Model == "" {
		req.Model = c.cfg.Model
	}

	logger.Section("Generation")
	logger.Debug("request %s: mode=%s model=%s", req.ID, req.Mode, req.Model)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.GenerateTimeout)
	defer cancel()

	start := time.Now()
	res, err := c.runner.Run(ctx, c.cfg.Command, c.requestArgs(req)...)
	logger.Debug("request %s finished in %s", req.ID, time.Since(start).Round(time.Millisecond))

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Sprintf("Error generating response: generation timed out after %s", c.cfg.GenerateTimeout)
		}
		if errors.Is(err, context.Canceled) {
			return "Error generating response: request cancelled"
		}
		return fmt.Sprintf("Error generating response: %v", err)
	}

	return interpret(res)
}

// interpret maps the worker's output to an answer.
func interpret(res driven.CommandResult) string {
	var answer string
	if stdout := strings.TrimSpace(string(res.Stdout)); stdout != "" {
		var resp domain.WorkerResponse
		switch {
		case json.Unmarshal([]byte(stdout), &resp) != nil:
			answer = stdout
		case resp.OK:
			answer = resp.Answer
		default:
			e := resp.Error
			if e == "" {
				e = msgUnknownError
			}
			answer = "Error generating response: " + e
		}
	}
	if answer == "" {
		if stderr := strings.TrimSpace(string(res.Stderr)); stderr != "" {
			answer = "Error generating response: " + stderr
		}
	}
	if answer == "" {
		answer = msgNoResponse
	}
	return answer
}

// requestArgs renders a request as worker flags.
func (c *Client) requestArgs(req domain.GenerationRequest) []string {
	args := append([]string(nil), c.cfg.Args...)
	args = append(args,
		"--request-id", req.ID,
		"--mode", string(req.Mode),
		"--model", req.Model,
		"--system", req.SystemPrompt,
		"--user", req.UserPrompt,
		"--temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64),
	)
	if req.MaxTokens > 0 {
		args = append(args, "--num-predict", strconv.Itoa(req.MaxTokens))
	}
	return args
}
