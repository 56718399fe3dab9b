// Package tui provides the interactive rule dashboard.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/ui/output"
	"go.trai.ch/tend/internal/ui/style"
)

const (
	ruleListWidthRatio = 0.3
	logPaneBorderWidth = 4
)

// RuleStatus represents what a rule is currently doing.
type RuleStatus string

const (
	// StatusWatching indicates the rule waits for changes.
	StatusWatching RuleStatus = "Watching"
	// StatusRunning indicates a process of the rule is alive.
	StatusRunning RuleStatus = "Running"
	// StatusRestarting indicates the rule is replacing its process.
	StatusRestarting RuleStatus = "Restarting"
	// StatusDone indicates the last run exited with code zero.
	StatusDone RuleStatus = "Done"
	// StatusError indicates the last run failed or could not be spawned.
	StatusError RuleStatus = "Error"
)

// RuleNode represents a single rule in the UI list.
type RuleNode struct {
	Name       string
	Status     RuleStatus
	Term       *Vterm
	Runs       int
	LastChange string
	running    int
}

// Model represents the main TUI state.
type Model struct {
	Rules          []*RuleNode
	RuleMap        map[string]*RuleNode
	SpanMap        map[string]*RuleNode
	ActiveRuleName string
	SelectedIdx    int
	ListOffset     int
	ListHeight     int
	LogWidth       int
	LogHeight      int
	FollowMode     bool
}

// NewModel creates a model that follows the most recently active rule.
func NewModel() Model {
	lipgloss.SetColorProfile(output.ColorProfile())

	return Model{
		RuleMap:    make(map[string]*RuleNode),
		SpanMap:    make(map[string]*RuleNode),
		FollowMode: true,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

func (m *Model) selectedRule() *RuleNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Rules) {
		return m.Rules[m.SelectedIdx]
	}
	return nil
}

func (m *Model) updateActiveView() {
	if node := m.selectedRule(); node != nil {
		m.ActiveRuleName = node.Name
		if m.FollowMode {
			node.Term.ScrollToBottom()
		}
	}
}

func (m *Model) focus(name string) {
	for i, r := range m.Rules {
		if r.Name == name {
			m.SelectedIdx = i
			break
		}
	}
	m.ensureVisible()
	m.updateActiveView()
}

func (m *Model) node(name string) *RuleNode {
	if m.RuleMap == nil {
		m.RuleMap = make(map[string]*RuleNode)
		m.SpanMap = make(map[string]*RuleNode)
	}
	if node, ok := m.RuleMap[name]; ok {
		return node
	}

	term := NewVterm()
	if m.LogWidth > 0 && m.LogHeight > 0 {
		term.SetWidth(m.LogWidth)
		term.SetHeight(m.LogHeight)
	}
	node := &RuleNode{Name: name, Status: StatusWatching, Term: term}
	m.Rules = append(m.Rules, node)
	m.RuleMap[name] = node
	return node
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // message dispatch
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		listWidth := int(float64(msg.Width) * ruleListWidthRatio)
		logWidth := msg.Width - listWidth - logPaneBorderWidth

		headerHeight := lipgloss.Height(titleStyle.Render("RULES"))
		m.LogWidth = logWidth
		m.LogHeight = msg.Height - headerHeight

		fullHeader := titleStyle.Render("RULES") + "\n\n"
		m.ListHeight = msg.Height - lipgloss.Height(fullHeader)
		m.ensureVisible()

		for _, node := range m.Rules {
			node.Term.SetWidth(m.LogWidth)
			node.Term.SetHeight(m.LogHeight)
		}

	case MsgRulesLoaded:
		m.Rules = nil
		m.RuleMap = make(map[string]*RuleNode, len(msg.Rules))
		m.SpanMap = make(map[string]*RuleNode)
		for _, name := range msg.Rules {
			m.node(name)
		}
		m.updateActiveView()

	case MsgRuleEvent:
		m.applyEvent(m.node(msg.Rule), msg.Event)

	case MsgRunStart:
		node := m.node(msg.Name)
		node.Status = StatusRunning
		node.Runs++
		node.running++
		m.SpanMap[msg.SpanID] = node
		if m.FollowMode {
			m.focus(msg.Name)
		}

	case MsgRunLog:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			_, _ = node.Term.Write(msg.Data)
		}

	case MsgRunComplete:
		if node, ok := m.SpanMap[msg.SpanID]; ok {
			delete(m.SpanMap, msg.SpanID)
			node.running--
			switch {
			case msg.Err != nil:
				node.Status = StatusError
			case node.running > 0:
				node.Status = StatusRunning
			case node.Status != StatusRestarting:
				node.Status = StatusDone
			}
		}
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case "k", "up":
		if m.SelectedIdx > 0 {
			m.SelectedIdx--
			m.FollowMode = false
			m.ensureVisible()
			m.updateActiveView()
		}
	case "j", "down":
		if m.SelectedIdx < len(m.Rules)-1 {
			m.SelectedIdx++
			m.FollowMode = false
			m.ensureVisible()
			m.updateActiveView()
		}
	case "esc":
		m.FollowMode = true
		for i, r := range m.Rules {
			if r.Status == StatusRunning {
				m.SelectedIdx = i
				break
			}
		}
		m.ensureVisible()
		m.updateActiveView()
	default:
		if node, ok := m.RuleMap[m.ActiveRuleName]; ok {
			node.Term.Scroll(msg.String())
		}
	}
	return nil
}

func (m *Model) applyEvent(node *RuleNode, ev domain.Event) {
	switch ev.Kind {
	case domain.EventCreate, domain.EventChange, domain.EventDelete:
		node.LastChange = string(ev.Kind) + " " + ev.Path
	case domain.EventRestart:
		node.Status = StatusRestarting
	case domain.EventCrash:
		node.Status = StatusError
		_, _ = fmt.Fprintf(node.Term, "\r\n%s exited with code %d\r\n", style.Cross, ev.ExitCode)
	case domain.EventError:
		node.Status = StatusError
		_, _ = fmt.Fprintf(node.Term, "\r\n%s %v\r\n", style.Cross, ev.Err)
	}
}
