package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/documind/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/documind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/documind/internal/core/domain"
)

// mockAnswerService implements driving.AnswerService for testing.
type mockAnswerService struct {
	AnswerFunc   func(ctx context.Context, query string, k int) (domain.Answer, error)
	availability domain.WorkerAvailability
	calls        int
}

func (m *mockAnswerService) Answer(ctx context.Context, query string, k int) (domain.Answer, error) {
	m.calls++
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, query, k)
	}
	return domain.Answer{Text: "answer to " + query, Sources: []domain.Citation{}}, nil
}

func (m *mockAnswerService) Summarise(_ context.Context, text string) (string, error) {
	return text, nil
}

func (m *mockAnswerService) Availability() domain.WorkerAvailability {
	if m.availability.State == "" {
		return domain.WorkerAvailability{State: domain.WorkerAvailable}
	}
	return m.availability
}

// mockIndexService implements driving.IndexService for testing.
type mockIndexService struct {
	stats domain.IndexStats
	err   error
}

func (m *mockIndexService) Stats(context.Context) (domain.IndexStats, error) { return m.stats, m.err }
func (m *mockIndexService) Clear(context.Context) error                      { return m.err }
func (m *mockIndexService) Recovery() domain.RecoveryStep                    { return domain.RecoveryPrimary }

func newTestApp(t *testing.T, answers *mockAnswerService) *App {
	t.Helper()
	app, err := NewApp(&Ports{Answer: answers})
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return app
}

func typeText(app *App, text string) {
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// runAsk presses enter and delivers the resulting AnswerReceived message.
func runAsk(t *testing.T, app *App, question string) {
	t.Helper()
	typeText(app, question)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.True(t, app.Thinking())

	msg := app.ask(question)()
	app.Update(msg)
}

func TestNewApp(t *testing.T) {
	t.Run("requires answer service", func(t *testing.T) {
		app, err := NewApp(&Ports{})
		assert.ErrorIs(t, err, ErrMissingAnswerService)
		assert.Nil(t, app)

		_, err = NewApp(nil)
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})

	t.Run("starts empty with sources shown", func(t *testing.T) {
		app, err := NewApp(&Ports{Answer: &mockAnswerService{}})
		require.NoError(t, err)
		assert.Empty(t, app.Turns())
		assert.False(t, app.Thinking())
		assert.True(t, app.ShowSources())
		assert.Equal(t, "Initialising...", app.View())
		assert.NotNil(t, app.Init())
	})
}

func TestApp_AskAppendsTurns(t *testing.T) {
	answers := &mockAnswerService{AnswerFunc: func(_ context.Context, q string, k int) (domain.Answer, error) {
		assert.Equal(t, 3, k)
		return domain.Answer{
			Text:    "Channels are typed conduits.",
			Sources: []domain.Citation{{Document: "go.pdf", Page: "3", Text: "channels"}},
		}, nil
	}}
	app := newTestApp(t, answers)
	app.WithTopK(3)

	runAsk(t, app, "what are channels?")

	require.Len(t, app.Turns(), 2)
	assert.Equal(t, domain.ChatTurn{Role: domain.RoleUser, Content: "what are channels?"}, app.Turns()[0])
	assert.Equal(t, domain.RoleAssistant, app.Turns()[1].Role)
	assert.Equal(t, "Channels are typed conduits.", app.Turns()[1].Content)
	require.Len(t, app.Turns()[1].Sources, 1)
	assert.False(t, app.Thinking())
	assert.Equal(t, status.StateReady, app.statusbar.State())

	view := app.View()
	assert.Contains(t, view, "Channels are typed conduits.")
	assert.Contains(t, view, "[1] go.pdf (page 3)")
}

func TestApp_EmptyQuestionIgnored(t *testing.T) {
	answers := &mockAnswerService{}
	app := newTestApp(t, answers)

	typeText(app, "   ")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, app.Turns())
	assert.False(t, app.Thinking())
}

func TestApp_OneQuestionInFlight(t *testing.T) {
	app := newTestApp(t, &mockAnswerService{})

	typeText(app, "first")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	typeText(app, "second")
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Len(t, app.Turns(), 1)
}

func TestApp_AnswerError(t *testing.T) {
	answers := &mockAnswerService{AnswerFunc: func(context.Context, string, int) (domain.Answer, error) {
		return domain.Answer{}, errors.New("embedding service unavailable")
	}}
	app := newTestApp(t, answers)

	runAsk(t, app, "anything")

	require.Len(t, app.Turns(), 2)
	assert.Equal(t, "Error: embedding service unavailable", app.Turns()[1].Content)
	assert.EqualError(t, app.Err(), "embedding service unavailable")
	assert.Equal(t, status.StateError, app.statusbar.State())
}

func TestApp_UnavailableWorkerShownInStatus(t *testing.T) {
	answers := &mockAnswerService{availability: domain.WorkerAvailability{
		State:  domain.WorkerUnavailable,
		Reason: "connection refused",
	}}
	app := newTestApp(t, answers)

	assert.Equal(t, status.StateUnavailable, app.statusbar.State())
	assert.Contains(t, app.View(), "LLM unavailable: connection refused")

	runAsk(t, app, "still ask")
	assert.Equal(t, status.StateUnavailable, app.statusbar.State())
	assert.Equal(t, 1, answers.calls)
}

func TestApp_ToggleSources(t *testing.T) {
	answers := &mockAnswerService{AnswerFunc: func(context.Context, string, int) (domain.Answer, error) {
		return domain.Answer{Text: "a", Sources: []domain.Citation{{Document: "doc.txt", Page: "1"}}}, nil
	}}
	app := newTestApp(t, answers)
	runAsk(t, app, "q")

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.False(t, app.ShowSources())
	assert.NotContains(t, app.View(), "doc.txt")
}

func TestApp_Clear(t *testing.T) {
	app := newTestApp(t, &mockAnswerService{})
	runAsk(t, app, "q")
	require.Len(t, app.Turns(), 2)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.Empty(t, app.Turns())
	assert.Contains(t, app.View(), "Ask anything about the ingested documents.")
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, &mockAnswerService{})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_IndexHeader(t *testing.T) {
	index := &mockIndexService{stats: domain.IndexStats{Count: 42, Name: "documind_collection"}}
	app, err := NewApp(&Ports{Answer: &mockAnswerService{}, Index: index})
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	app.Update(app.loadIndexStats()())

	assert.Contains(t, app.View(), "42 passages in documind_collection")
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, &mockAnswerService{})

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Equal(t, status.StateError, app.statusbar.State())
}

func TestApp_SpinnerIgnoredWhenIdle(t *testing.T) {
	app := newTestApp(t, &mockAnswerService{})

	_, cmd := app.Update(app.spinner.Tick())

	assert.Nil(t, cmd)
}
