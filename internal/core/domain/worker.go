package domain

// WorkerState is the lifecycle state of a generation worker.
type WorkerState string

// Worker states. A worker moves from Uninitialized through Checking to
// Available or Unavailable exactly once, at construction.
const (
	WorkerUninitialized WorkerState = "uninitialized"
	WorkerChecking      WorkerState = "checking"
	WorkerAvailable     WorkerState = "available"
	WorkerUnavailable   WorkerState = "unavailable"
)

// WorkerAvailability is the outcome of the availability probe.
// Reason is set only when State is WorkerUnavailable.
type WorkerAvailability struct {
	State  WorkerState
	Reason string
}

// IsAvailable reports whether the worker may service generation requests.
func (a WorkerAvailability) IsAvailable() bool {
	return a.State == WorkerAvailable
}

// GenerationMode selects the kind of completion requested from the worker.
type GenerationMode string

// Generation modes understood by the worker process.
const (
	GenerationModeChat    GenerationMode = "chat"
	GenerationModeSummary GenerationMode = "summary"
)

// IsValid returns true if the mode is recognised.
func (m GenerationMode) IsValid() bool {
	return m == GenerationModeChat || m == GenerationModeSummary
}

// GenerationRequest is the structured request sent across the worker boundary.
type GenerationRequest struct {
	ID           string
	Mode         GenerationMode
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// WorkerResponse is the single JSON object a worker process writes to stdout.
// Check mode omits Answer.
type WorkerResponse struct {
	OK     bool   `json:"ok"`
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}
