package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
)

type fakeQA struct {
	initErr error
	answer  *domain.Answer
	err     error
	asked   []string
}

func (f *fakeQA) Initialize(context.Context) error { return f.initErr }

func (f *fakeQA) Ask(_ context.Context, q string) (*domain.Answer, error) {
	f.asked = append(f.asked, q)
	return f.answer, f.err
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func readyModel(t *testing.T, qa *fakeQA) Model {
	t.Helper()
	m := New(qa, 0, DefaultExamples)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, m.initialize()())
	require.True(t, m.initialized)
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestModel_AsksAndRendersAnswer(t *testing.T) {
	qa := &fakeQA{answer: &domain.Answer{
		Text: "Paris is the capital of France.",
		Sources: []domain.SearchResult{
			{Chunk: domain.Chunk{ChunkID: "p0:0", Text: "Paris is the capital of France. It is big."}, Score: 0.8},
			{Chunk: domain.Chunk{ChunkID: "p1:0", Text: "Bell invented the telephone."}, Score: 0.1},
		},
	}}
	m := readyModel(t, qa)
	m = typeText(t, m, "capital of France?")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	// run the ask command directly rather than through the batch
	m, _ = update(t, m, m.ask("capital of France?")())
	assert.False(t, m.busy)
	assert.Equal(t, []string{"capital of France?"}, qa.asked)
	out := m.renderCurrentResult()
	assert.Contains(t, out, "Paris is the capital of France.")
	assert.Contains(t, out, "Source 1/2")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Contains(t, m.renderCurrentResult(), "Source 2/2")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Contains(t, m.renderCurrentResult(), "Source 1/2")
}

func TestModel_NoAnswerAndErrorsRenderDifferently(t *testing.T) {
	qa := &fakeQA{answer: &domain.Answer{Text: "Not found in source.", Fallback: true}}
	m := readyModel(t, qa)
	m, _ = update(t, m, answerMsg{query: "swallow", answer: qa.answer})
	assert.Contains(t, m.renderCurrentResult(), "No answer found")
	assert.Nil(t, m.err)

	m, _ = update(t, m, answerMsg{query: "swallow", err: errors.Join(domain.ErrGeneration, errors.New("timeout"))})
	out := m.renderCurrentResult()
	assert.Contains(t, out, "System error")
	assert.Contains(t, out, "answer generator failed")
	assert.True(t, strings.HasPrefix(m.status, "Error:"))
}

func TestModel_EnterIgnoredUntilReady(t *testing.T) {
	qa := &fakeQA{}
	m := New(qa, 0, nil)
	m = typeText(t, m, "hello")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_BuildFailureCanRetry(t *testing.T) {
	qa := &fakeQA{initErr: domain.ErrSourceUnavailable}
	m := New(qa, 0, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, m.initialize()())
	assert.False(t, m.initialized)
	assert.Contains(t, m.renderCurrentResult(), "Index build failed")

	qa.initErr = nil
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	m, _ = update(t, m, m.initialize()())
	assert.True(t, m.initialized)
	assert.Nil(t, m.err)
}

func TestModel_TabCyclesExamples(t *testing.T) {
	m := readyModel(t, &fakeQA{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, DefaultExamples[0], m.input.Value())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, DefaultExamples[1], m.input.Value())

	// once the user edits the text, tab no longer replaces it
	m = typeText(t, m, "x")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, DefaultExamples[1]+"x", m.input.Value())
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Paris is big. The telephone was invented by Bell. It rang.", "who invented the telephone")
	assert.Contains(t, out, "Paris is big.")
	assert.Contains(t, out, "It rang.")
	assert.Contains(t, out, "The telephone was invented by Bell.")

	assert.Equal(t, "no query here.", highlightBestSentence("no query here.", ""))
}
