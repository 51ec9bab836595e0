package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/domain"
)

type fakeSearch struct {
	gotQuery string
	gotK     int
	results  []domain.SearchResult
	err      error
}

func (f *fakeSearch) Query(_ context.Context, q string, k int) ([]domain.SearchResult, error) {
	f.gotQuery, f.gotK = q, k
	return f.results, f.err
}

func typeAndEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_QueryRoundTrip(t *testing.T) {
	svc := &fakeSearch{results: []domain.SearchResult{
		{ID: 4, Text: "log log.level core Original log level of the log event.", Distance: 0.12},
		{ID: 0, Text: "base @timestamp core Date/time when the event originated.", Distance: 0.9},
	}}
	m := New(context.Background(), svc, "2 records", 2)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(Model)

	m, cmd := typeAndEnter(t, m, "  log level ")
	require.NotNil(t, cmd)
	assert.True(t, m.searching)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, "log level", svc.gotQuery)
	assert.Equal(t, 2, svc.gotK)
	assert.False(t, m.searching)
	assert.Len(t, m.results, 2)
	assert.Contains(t, m.renderCurrentResult(), "Result 1/2  distance=0.1200  id=4")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.renderCurrentResult(), "id=0")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "Semantic Search")
}

func TestModel_QueryError(t *testing.T) {
	svc := &fakeSearch{err: errors.New("index not built")}
	m := New(context.Background(), svc, "", 0)
	m, cmd := typeAndEnter(t, m, "anything")
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, "Error: index not built", m.status)
	assert.Equal(t, 3, svc.gotK)
}

func TestModel_Quit(t *testing.T) {
	m := New(context.Background(), &fakeSearch{}, "", 3)
	_, cmd := typeAndEnter(t, m, "EXIT")
	assert.True(t, isQuit(cmd))

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.True(t, isQuit(cmd))

	_, cmd = typeAndEnter(t, m, "   ")
	assert.Nil(t, cmd)
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Hosts send data. The log level is set here. Nothing else"
	out := highlightBestSentence(text, "log level")
	assert.Contains(t, out, "Hosts send data.")
	assert.Contains(t, out, "Nothing else")
	assert.Contains(t, out, "The log level is set here.")
	assert.Equal(t, "plain text", highlightBestSentence("plain text", ""))
}
