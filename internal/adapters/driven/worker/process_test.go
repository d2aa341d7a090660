package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/documind/internal/adapters/driven/process"
	"github.com/custodia-labs/documind/internal/core/domain"
)

// TestHelperProcess is not a real test. It is re-executed by the tests
// below and behaves like a worker process chosen by WORKER_BEHAVIOUR.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	check := false
	for _, a := range os.Args {
		if a == "--check" {
			check = true
		}
	}

	write := func(v domain.WorkerResponse) {
		_ = json.NewEncoder(os.Stdout).Encode(v)
	}

	switch os.Getenv("WORKER_BEHAVIOUR") {
	case "healthy":
		if check {
			write(domain.WorkerResponse{OK: true})
		} else {
			write(domain.WorkerResponse{OK: true, Answer: "answer from child"})
		}
	case "down":
		write(domain.WorkerResponse{OK: false, Error: "backend unreachable"})
	case "slow":
		if check {
			write(domain.WorkerResponse{OK: true})
		} else {
			time.Sleep(10 * time.Second)
		}
	case "garbage":
		if check {
			write(domain.WorkerResponse{OK: true})
		} else {
			fmt.Fprint(os.Stdout, "not json at all")
		}
	}
	os.Exit(0)
}

func helperClient(behaviour string, generateTimeout time.Duration) *Client {
	runner := &process.ExecRunner{
		Env:       []string{"GO_WANT_HELPER_PROCESS=1", "WORKER_BEHAVIOUR=" + behaviour},
		WaitDelay: 100 * time.Millisecond,
	}
	return New(context.Background(), Config{
		Command:         os.Args[0],
		Args:            []string{"-test.run=TestHelperProcess", "--"},
		Model:           "m",
		CheckTimeout:    5 * time.Second,
		GenerateTimeout: generateTimeout,
	}, runner)
}

func TestChildProcess_Healthy(t *testing.T) {
	c := helperClient("healthy", 5*time.Second)

	assert.True(t, c.Availability().IsAvailable())
	assert.Equal(t, "answer from child", c.Generate(context.Background(), chatRequest()))
}

func TestChildProcess_BackendDown(t *testing.T) {
	c := helperClient("down", 5*time.Second)

	assert.Equal(t, domain.WorkerUnavailable, c.Availability().State)
	assert.Equal(t, "LLM is unavailable: backend unreachable", c.Generate(context.Background(), chatRequest()))
}

func TestChildProcess_Timeout(t *testing.T) {
	c := helperClient("slow", 300*time.Millisecond)

	start := time.Now()
	answer := c.Generate(context.Background(), chatRequest())

	assert.Contains(t, answer, "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestChildProcess_MalformedOutput(t *testing.T) {
	c := helperClient("garbage", 5*time.Second)

	assert.Equal(t, "not json at all", c.Generate(context.Background(), chatRequest()))
}
