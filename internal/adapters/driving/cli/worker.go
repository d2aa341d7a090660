package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/documind/internal/adapters/driving/worker"
	"github.com/custodia-labs/documind/internal/app"
	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
	"github.com/custodia-labs/documind/internal/logger"
)

// workerFlags holds the worker command flags.
type workerFlags struct {
	check       bool
	model       string
	mode        string
	system      string
	user        string
	temperature float64
	numPredict  int
	requestID   string
}

var workerReq workerFlags

var workerCmd = &cobra.Command{
	Use:    app.WorkerSubcommand,
	Short:  "Run one generation request (internal)",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runWorker,
}

func init() {
	f := workerCmd.Flags()
	f.BoolVar(&workerReq.check, "check", false, "only check that the model is reachable")
	f.StringVar(&workerReq.model, "model", "", "model name")
	f.StringVar(&workerReq.mode, "mode", string(domain.GenerationModeChat), "chat or summary")
	f.StringVar(&workerReq.system, "system", "", "system prompt")
	f.StringVar(&workerReq.user, "user", "", "user prompt")
	f.Float64Var(&workerReq.temperature, "temperature", domain.DefaultTemperature, "sampling temperature")
	f.IntVar(&workerReq.numPredict, "num-predict", domain.DefaultMaxTokens, "maximum tokens to generate")
	f.StringVar(&workerReq.requestID, "request-id", "", "request identifier for logs")
	rootCmd.AddCommand(workerCmd)
}

// runWorker always writes one JSON response and returns nil, so the process
// exits 0 whatever happens to the request.
func runWorker(cmd *cobra.Command, _ []string) error {
	req := worker.Request{
		Check:       workerReq.check,
		RequestID:   workerReq.requestID,
		Mode:        domain.GenerationMode(workerReq.mode),
		Model:       workerReq.model,
		System:      workerReq.system,
		User:        workerReq.user,
		Temperature: workerReq.temperature,
		NumPredict:  workerReq.numPredict,
	}

	var factory worker.LLMFactory
	if _, settings, err := app.LoadSettings(configDir); err != nil {
		factory = func(string) (driven.LLMService, error) {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
	} else {
		factory = app.NewLLMFactory(settings.LLM)
	}

	if err := worker.Serve(cmd.Context(), req, factory, cmd.OutOrStdout()); err != nil {
		logger.Error("worker response: %v", err)
	}
	return nil
}
