package tui_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/tui"
	"go.trai.ch/tend/internal/core/domain"
)

func newModel(t *testing.T, rules ...string) *tui.Model {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	m := tui.NewModel()
	m.Update(tui.MsgRulesLoaded{Rules: rules})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return &m
}

func TestModel_RulesLoaded(t *testing.T) {
	m := newModel(t, "server", "test")

	require.Len(t, m.Rules, 2)
	assert.Equal(t, "server", m.ActiveRuleName)
	assert.Equal(t, tui.StatusWatching, m.Rules[1].Status)
	assert.Positive(t, m.LogWidth)
	assert.Equal(t, m.LogWidth, m.Rules[0].Term.Width)
}

func TestModel_RunLifecycle(t *testing.T) {
	m := newModel(t, "server", "test")

	m.Update(tui.MsgRunStart{SpanID: "s1", Name: "test", StartTime: time.Now()})
	assert.Equal(t, tui.StatusRunning, m.RuleMap["test"].Status)
	assert.Equal(t, "test", m.ActiveRuleName, "follow mode focuses the active rule")
	assert.Equal(t, 1, m.SelectedIdx)

	m.Update(tui.MsgRunLog{SpanID: "s1", Data: []byte("ok\n")})
	assert.Contains(t, m.View(), "ok")

	m.Update(tui.MsgRunComplete{SpanID: "s1", EndTime: time.Now()})
	assert.Equal(t, tui.StatusDone, m.RuleMap["test"].Status)
	assert.Equal(t, 1, m.RuleMap["test"].Runs)

	m.Update(tui.MsgRunStart{SpanID: "s2", Name: "test", StartTime: time.Now()})
	m.Update(tui.MsgRunComplete{SpanID: "s2", EndTime: time.Now(), Err: assert.AnError})
	assert.Equal(t, tui.StatusError, m.RuleMap["test"].Status)
}

func TestModel_OverlappingRunsStayRunning(t *testing.T) {
	m := newModel(t, "test")

	m.Update(tui.MsgRunStart{SpanID: "s1", Name: "test"})
	m.Update(tui.MsgRunStart{SpanID: "s2", Name: "test"})
	m.Update(tui.MsgRunComplete{SpanID: "s1"})
	assert.Equal(t, tui.StatusRunning, m.RuleMap["test"].Status)

	m.Update(tui.MsgRunComplete{SpanID: "s2"})
	assert.Equal(t, tui.StatusDone, m.RuleMap["test"].Status)
}

func TestModel_RuleEvents(t *testing.T) {
	m := newModel(t, "server")

	m.Update(tui.MsgRuleEvent{Rule: "server", Event: domain.Event{Kind: domain.EventChange, Path: "main.go"}})
	assert.Equal(t, "change main.go", m.RuleMap["server"].LastChange)

	m.Update(tui.MsgRunStart{SpanID: "s1", Name: "server"})
	m.Update(tui.MsgRuleEvent{Rule: "server", Event: domain.Event{Kind: domain.EventRestart}})
	m.Update(tui.MsgRunComplete{SpanID: "s1", Err: assert.AnError})
	assert.Equal(t, tui.StatusError, m.RuleMap["server"].Status)

	m.Update(tui.MsgRuleEvent{Rule: "server", Event: domain.Event{Kind: domain.EventError, Err: domain.ErrSpawnFailed}})
	assert.Contains(t, m.View(), "failed to spawn command")

	// Events of rules that were not announced add them to the list.
	m.Update(tui.MsgRuleEvent{Rule: "late", Event: domain.Event{Kind: domain.EventCrash, ExitCode: 3}})
	require.Len(t, m.Rules, 2)
	assert.Equal(t, tui.StatusError, m.RuleMap["late"].Status)
}

func TestModel_Navigation(t *testing.T) {
	m := newModel(t, "a", "b", "c")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.SelectedIdx)
	assert.False(t, m.FollowMode)
	assert.Equal(t, "b", m.ActiveRuleName)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, 0, m.SelectedIdx)

	m.Update(tui.MsgRunStart{SpanID: "s1", Name: "c"})
	assert.Equal(t, "a", m.ActiveRuleName, "manual mode keeps the selection")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.FollowMode)
	assert.Equal(t, "c", m.ActiveRuleName)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_ViewBeforeResize(t *testing.T) {
	m := tui.NewModel()
	assert.Equal(t, "Initializing...", m.View())
}
