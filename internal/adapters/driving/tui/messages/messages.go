// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/documind/internal/core/domain"
)

// QuestionSubmitted is sent when the user asks a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries a generated answer back to the model.
type AnswerReceived struct {
	Question string
	Answer   domain.Answer
	Err      error
}

// ErrorOccurred is sent when an error occurs outside an answer.
type ErrorOccurred struct {
	Err error
}
