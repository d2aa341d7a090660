package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/documind/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/documind/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/documind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/documind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/documind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/documind/internal/core/domain"
)

// Rows used by everything except the conversation viewport.
const chromeHeight = 6

// indexStatsLoaded carries the header statistics fetched at start-up.
type indexStatsLoaded struct {
	stats domain.IndexStats
	err   error
}

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input     *input.QuestionInput
	viewport  viewport.Model
	spinner   spinner.Model
	statusbar *status.Bar

	// turns is the conversation so far, oldest first.
	turns []domain.ChatTurn

	topK        int
	thinking    bool
	showSources bool
	header      string
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Spinner

	a := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		input:       input.NewQuestionInput(s),
		viewport:    viewport.New(80, 18),
		spinner:     sp,
		statusbar:   status.NewBar(s, km),
		showSources: true,
	}
	a.idleStatus()
	a.refresh()
	return a, nil
}

// WithContext sets the context passed to the answer service.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithTopK sets how many passages each answer is grounded on.
// Zero uses the configured default.
func (a *App) WithTopK(k int) *App {
	a.topK = k
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.input.Init(),
		tea.SetWindowTitle("documind - Chat"),
	}
	if a.ports.Index != nil {
		cmds = append(cmds, a.loadIndexStats())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.setDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		if !a.thinking {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.refresh()
		return a, cmd

	case messages.AnswerReceived:
		a.handleAnswer(msg)
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil

	case indexStatsLoaded:
		if msg.err == nil {
			a.header = fmt.Sprintf("%d passages in %s", msg.stats.Count, msg.stats.Name)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()
	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(keyStr, a.keymap.Send):
		return a, a.submit()

	case keymap.Matches(keyStr, a.keymap.ToggleSources):
		a.showSources = !a.showSources
		a.refresh()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Clear):
		if a.thinking {
			return a, nil
		}
		a.turns = nil
		a.err = nil
		a.statusbar.Clear()
		a.idleStatus()
		a.refresh()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.ScrollUp), keymap.Matches(keyStr, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit records the typed question and starts answering it.
// Only one question is in flight at a time.
func (a *App) submit() tea.Cmd {
	if a.thinking {
		return nil
	}
	question := strings.TrimSpace(a.input.Value())
	if question == "" {
		return nil
	}

	a.turns = append(a.turns, domain.ChatTurn{Role: domain.RoleUser, Content: question})
	a.input.Reset()
	a.thinking = true
	a.err = nil
	a.statusbar.SetState(status.StateThinking)
	a.refresh()

	return tea.Batch(a.spinner.Tick, a.ask(question))
}

// ask runs the answer service off the update loop.
func (a *App) ask(question string) tea.Cmd {
	ctx, answers, k := a.ctx, a.ports.Answer, a.topK
	return func() tea.Msg {
		answer, err := answers.Answer(ctx, question, k)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (a *App) handleAnswer(msg messages.AnswerReceived) {
	a.thinking = false

	if msg.Err != nil {
		a.err = msg.Err
		a.turns = append(a.turns, domain.ChatTurn{
			Role:    domain.RoleAssistant,
			Content: "Error: " + msg.Err.Error(),
		})
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
	} else {
		a.turns = append(a.turns, domain.ChatTurn{
			Role:    domain.RoleAssistant,
			Content: msg.Answer.Text,
			Sources: msg.Answer.Sources,
		})
		a.idleStatus()
	}

	a.refresh()
}

func (a *App) loadIndexStats() tea.Cmd {
	ctx, index := a.ctx, a.ports.Index
	return func() tea.Msg {
		stats, err := index.Stats(ctx)
		return indexStatsLoaded{stats: stats, err: err}
	}
}

// idleStatus shows the worker's probe outcome while no question is pending.
func (a *App) idleStatus() {
	availability := a.ports.Answer.Availability()
	if !availability.IsAvailable() {
		a.statusbar.SetState(status.StateUnavailable)
		a.statusbar.SetMessage(availability.Reason)
		return
	}
	a.statusbar.SetState(status.StateReady)
	a.statusbar.SetMessage("")
	a.statusbar.SetTurns(a.questions())
}

func (a *App) questions() int {
	n := 0
	for _, t := range a.turns {
		if t.Role == domain.RoleUser {
			n++
		}
	}
	return n
}

func (a *App) setDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.viewport.Width = width
	a.viewport.Height = max(height-chromeHeight, 3)
	a.input.SetWidth(width)
	a.statusbar.SetWidth(width)
	a.refresh()
}

// refresh re-renders the conversation and scrolls to the latest turn.
func (a *App) refresh() {
	a.viewport.SetContent(a.renderConversation())
	a.viewport.GotoBottom()
}

func (a *App) renderConversation() string {
	if len(a.turns) == 0 && !a.thinking {
		return a.styles.Muted.Render("Ask anything about the ingested documents.")
	}

	wrap := a.styles.Normal
	if a.width > 4 {
		wrap = wrap.Width(a.width - 2)
	}

	var b strings.Builder
	for i, turn := range a.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if turn.Role == domain.RoleUser {
			b.WriteString(a.styles.UserLabel.Render("You: "))
			b.WriteString(wrap.Render(turn.Content))
			continue
		}
		b.WriteString(a.styles.AssistantLabel.Render("DocuMind:"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(turn.Content))
		if a.showSources && len(turn.Sources) > 0 {
			b.WriteString("\n")
			b.WriteString(a.renderSources(turn.Sources))
		}
	}

	if a.thinking {
		b.WriteString("\n\n")
		b.WriteString(a.spinner.View())
		b.WriteString(a.styles.Muted.Render(" Thinking..."))
	}
	return b.String()
}

func (a *App) renderSources(sources []domain.Citation) string {
	lines := make([]string, 0, len(sources)+1)
	lines = append(lines, a.styles.Muted.Render("Sources:"))
	for i, src := range sources {
		lines = append(lines, a.styles.Citation.Render(
			fmt.Sprintf("[%d] %s (page %s)", i+1, src.Document, src.Page),
		))
	}
	return strings.Join(lines, "\n")
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	header := a.styles.Title.Render("DocuMind")
	if a.header != "" {
		header += a.styles.Muted.Render("  " + a.header)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		a.viewport.View(),
		a.input.View(),
		a.statusbar.View(),
	)
}

// Turns returns the conversation so far.
func (a *App) Turns() []domain.ChatTurn {
	return a.turns
}

// Thinking reports whether an answer is pending.
func (a *App) Thinking() bool {
	return a.thinking
}

// ShowSources reports whether citations are rendered under answers.
func (a *App) ShowSources() bool {
	return a.showSources
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}
