package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragqa/internal/domain"
)

// QAPort is the TUI-facing subset of the pipeline.
type QAPort interface {
	Initialize(ctx context.Context) error
	Ask(ctx context.Context, query string) (*domain.Answer, error)
}

// DefaultExamples are offered with Tab while the input is empty.
var DefaultExamples = []string{
	"What is machine learning?",
	"Who invented the telephone?",
	"What is the capital of France?",
	"When did World War 2 end?",
}

type readyMsg struct{ err error }

type answerMsg struct {
	query  string
	answer *domain.Answer
	err    error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  QAPort
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	examples []string
	example  int

	initialized bool
	busy        bool
	ready       bool
	status      string
	answer      *domain.Answer
	err         error
	cursor      int
	lastQuery   string
}

// New creates a new TUI model instance. timeout bounds each question;
// zero means no limit.
func New(service QAPort, timeout time.Duration, examples []string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter (Tab for examples)"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		timeout:  timeout,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		examples: examples,
		example:  -1,
		busy:     true,
		status:   "Building index...",
	}
}

// Init starts the index build in the background.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.initialize())
}

func (m Model) initialize() tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		return readyMsg{err: svc.Initialize(context.Background())}
	}
}

func (m Model) ask(q string) tea.Cmd {
	svc, timeout := m.service, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		ans, err := svc.Ask(ctx, q)
		return answerMsg{query: q, answer: ans, err: err}
	}
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, status, spacer
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case readyMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.status = "Index build failed. Press Ctrl+R to retry."
		} else {
			m.initialized = true
			m.err = nil
			m.status = "Ready. Type a question."
		}
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case answerMsg:
		m.busy = false
		m.lastQuery = msg.query
		m.cursor = 0
		m.answer, m.err = msg.answer, msg.err
		switch {
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
		case msg.answer.NoAnswer():
			m.status = fmt.Sprintf("No answer for %q", msg.query)
		default:
			m.status = fmt.Sprintf("Answered %q from %d sources", msg.query, len(msg.answer.Sources))
		}
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if m.busy || !m.initialized || q == "" {
				return m, nil
			}
			if q == "exit" || q == "quit" {
				return m, tea.Quit
			}
			m.busy = true
			m.example = -1
			m.status = fmt.Sprintf("Thinking about %q...", q)
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case "ctrl+r":
			if m.busy || m.initialized {
				return m, nil
			}
			m.busy = true
			m.status = "Building index..."
			return m, tea.Batch(m.spinner.Tick, m.initialize())
		case "tab":
			if len(m.examples) > 0 && (m.input.Value() == "" || m.example >= 0) {
				m.example = (m.example + 1) % len(m.examples)
				m.input.SetValue(m.examples[m.example])
				m.input.CursorEnd()
				return m, nil
			}
		case "down":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		default:
			m.example = -1
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Question Answering")
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("enter ask · tab examples · ↑/↓ sources · ctrl+c quit")
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	statusStyle := okStyle
	if m.err != nil {
		statusStyle = errorStyle
	}
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + help + "\n" + results + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) sourceCount() int {
	if m.answer == nil {
		return 0
	}
	return len(m.answer.Sources)
}

func (m Model) renderCurrentResult() string {
	if m.err != nil {
		title := "System error"
		if !m.initialized {
			title = "Index build failed"
		}
		return errorStyle.Render(title) + "\n\n" + describeError(m.err)
	}
	if m.answer == nil {
		return "No answer yet."
	}
	var b strings.Builder
	if m.answer.NoAnswer() {
		b.WriteString(noAnswerStyle.Render("No answer found in the corpus."))
		if m.answer.Text != "" {
			b.WriteString("\n" + m.answer.Text)
		}
	} else {
		b.WriteString(answerStyle.Render("Answer: ") + m.answer.Text)
	}
	if n := len(m.answer.Sources); n > 0 {
		r := m.answer.Sources[m.cursor]
		title := fmt.Sprintf("Source %d/%d  %s  score=%.3f", m.cursor+1, n, r.Chunk.ChunkID, r.Score)
		b.WriteString("\n\n" + sourceTitleStyle.Render(title) + "\n")
		b.WriteString(highlightBestSentence(r.Chunk.Text, m.lastQuery))
	}
	return b.String()
}

func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrSourceUnavailable):
		return "The corpus could not be loaded: " + err.Error()
	case errors.Is(err, domain.ErrEmbedding):
		return "The embedding backend failed: " + err.Error()
	case errors.Is(err, domain.ErrGeneration):
		return "The answer generator failed: " + err.Error()
	default:
		return err.Error()
	}
}

var (
	resultBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	answerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	noAnswerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true)
	sourceTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	unicodeWordRe    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe       = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.TrimSpace(strings.Join(sentences, ""))
	}
	bestIdx := -1
	bestScore := 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	out := make([]string, 0, len(sentences))
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if sent == "" {
			continue
		}
		if i == bestIdx {
			sent = highlightStyle.Render(sent)
		}
		out = append(out, sent)
	}
	return strings.Join(out, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
