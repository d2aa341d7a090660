package driven

import "context"

// CommandResult is the captured outcome of an external command.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandRunner launches external programs.
// A non-zero exit is reported through ExitCode, not as an error; err is
// reserved for launch failures and context expiry.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}
