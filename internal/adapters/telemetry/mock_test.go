package telemetry_test

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/tend/internal/core/domain"
)

// recordingRenderer is a thread-safe test double for ports.Renderer.
type recordingRenderer struct {
	mu       sync.Mutex
	started  []string
	logs     map[string][]byte
	complete map[string]error
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{
		logs:     make(map[string][]byte),
		complete: make(map[string]error),
	}
}

func (m *recordingRenderer) Start(_ context.Context) error        { return nil }
func (m *recordingRenderer) Stop() error                          { return nil }
func (m *recordingRenderer) Wait() error                          { return nil }
func (m *recordingRenderer) OnRulesLoaded(_ []string)             {}
func (m *recordingRenderer) OnRuleEvent(_ string, _ domain.Event) {}

func (m *recordingRenderer) OnRunStart(spanID, name string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, name+"/"+spanID)
}

func (m *recordingRenderer) OnRunLog(spanID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[spanID] = append(m.logs[spanID], data...)
}

func (m *recordingRenderer) OnRunComplete(spanID string, _ time.Time, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complete[spanID] = err
}

func (m *recordingRenderer) log(spanID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.logs[spanID])
}
