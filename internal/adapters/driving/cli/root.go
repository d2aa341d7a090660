// Package cli implements the documind command line.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/documind/internal/app"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services used by commands. They are wired on first use by connect, or
// injected up front with SetServices.
var (
	ingestService   driving.IngestService
	retriever       driving.Retriever
	answerService   driving.AnswerService
	indexService    driving.IndexService
	settingsService driving.SettingsService
)

// Services bundles the driving ports commands run against.
type Services struct {
	Ingest    driving.IngestService
	Retriever driving.Retriever
	Answer    driving.AnswerService
	Index     driving.IndexService
	Settings  driving.SettingsService
}

// openApp and loadSettings build services on demand. SetServices clears
// them so injected services are never replaced.
var (
	openApp      = app.Open
	loadSettings = func(dir string) (driving.SettingsService, error) {
		svc, _, err := app.LoadSettings(dir)
		return svc, err
	}
)

// opened holds apps to close when Execute returns.
var opened []*app.App

var rootCmd = &cobra.Command{
	Use:   "documind",
	Short: "Ask questions about your documents",
	Long: `DocuMind indexes PDF, DOCX and text files into a local vector index and
answers questions about them with a language model, citing the passages
each answer was built from.

Embeddings and generation default to a local Ollama server. The language
model is reached through a separate worker process, so an unreachable model
never stops search from working.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		loadDotEnv()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline progress to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.documind)")
}

// SetServices injects the services commands use.
func SetServices(s Services) {
	ingestService = s.Ingest
	retriever = s.Retriever
	answerService = s.Answer
	indexService = s.Index
	settingsService = s.Settings
	openApp = nil
	loadSettings = nil
}

// Execute runs the root command and releases any services it opened.
// Command output goes to stdout; logs go to stderr.
func Execute(ctx context.Context) error {
	defer closeServices()
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// connect wires the index-backed services, and the generation worker when
// withWorker is set, unless they are already available.
func connect(cmd *cobra.Command, withWorker bool) error {
	if openApp == nil {
		return nil
	}
	if retriever != nil && (!withWorker || answerService != nil) {
		return nil
	}

	a, err := openApp(cmd.Context(), app.Options{ConfigDir: configDir, WithWorker: withWorker})
	if err != nil {
		return err
	}
	opened = append(opened, a)

	ingestService = a.Ingest
	retriever = a.Retriever
	indexService = a.Index
	settingsService = a.SettingsService
	if a.Answer != nil {
		answerService = a.Answer
	}
	return nil
}

// connectSettings wires only the settings service, so a broken provider
// configuration can still be inspected and fixed.
func connectSettings() error {
	if settingsService != nil || loadSettings == nil {
		return nil
	}
	svc, err := loadSettings(configDir)
	if err != nil {
		return err
	}
	settingsService = svc
	return nil
}

func closeServices() {
	for _, a := range opened {
		if err := a.Close(); err != nil {
			logger.Warn("closing services: %v", err)
		}
	}
	opened = nil
}

// loadDotEnv reads .env from the working directory. Variables already set
// in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("reading .env: %v", err)
	}
}
