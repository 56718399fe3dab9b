package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/logger"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestCollectErrorEntries_PlainError(t *testing.T) {
	entries := logger.CollectErrorEntriesExported(errors.New("exit status 2"))

	require.Len(t, entries, 1)
	assert.Equal(t, "exit status 2", entries[0].Message)
	assert.Nil(t, entries[0].Metadata)
}

func TestCollectErrorEntries_Nil(t *testing.T) {
	assert.Empty(t, logger.CollectErrorEntriesExported(nil))
}

func TestCollectErrorEntries_SentinelFieldsMoveToSentinel(t *testing.T) {
	err := domain.WithFields(domain.ErrKillTimeout, "pid", 4242)

	entries := logger.CollectErrorEntriesExported(err)

	require.Len(t, entries, 1)
	assert.Equal(t, "timed out killing process", entries[0].Message)
	assert.Equal(t, map[string]any{"pid": 4242}, entries[0].Metadata)
}

func TestCollectErrorEntries_WrappedChain(t *testing.T) {
	cause := zerr.With(zerr.New("yaml: line 3: did not find expected key"), "file", "tend.yaml")
	err := zerr.With(zerr.Wrap(cause, "failed to load configuration"), "cwd", "/src")

	entries := logger.CollectErrorEntriesExported(err)

	require.Len(t, entries, 2)
	assert.Equal(t, "failed to load configuration", entries[0].Message)
	assert.Equal(t, map[string]any{"cwd": "/src"}, entries[0].Metadata)
	assert.Equal(t, "yaml: line 3: did not find expected key", entries[1].Message)
	assert.Equal(t, map[string]any{"file": "tend.yaml"}, entries[1].Metadata)
}

func TestCollectErrorEntries_StdlibCauseEndsWalk(t *testing.T) {
	err := zerr.Wrap(errors.New("fork/exec /bin/nope: no such file or directory"), "failed to spawn command")

	entries := logger.CollectErrorEntriesExported(err)

	require.Len(t, entries, 2)
	assert.Equal(t, "fork/exec /bin/nope: no such file or directory", entries[1].Message)
}

func TestFormatErrorEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "empty",
			entries: nil,
			want:    "",
		},
		{
			name:    "message only",
			entries: []logger.ErrorEntry{{Message: "rule not found"}},
			want:    "Error: rule not found",
		},
		{
			name: "fields sorted under the message",
			entries: []logger.ErrorEntry{{
				Message:  "invalid rule option",
				Metadata: map[string]any{"value": -1, "field": "parallelLimit"},
			}},
			want: "Error: invalid rule option\n       field: parallelLimit\n       value: -1",
		},
		{
			name: "causes",
			entries: []logger.ErrorEntry{
				{Message: "failed to stop rule", Metadata: map[string]any{"rule": "server"}},
				{Message: "timed out killing process", Metadata: map[string]any{"pid": 17}},
			},
			want: "Error: failed to stop rule\n       rule: server\n\n" +
				"  Caused by:\n" +
				"    → timed out killing process\n" +
				"      pid: 17",
		},
		{
			name: "multiline cause",
			entries: []logger.ErrorEntry{
				{Message: "failed to load configuration"},
				{Message: "yaml: unmarshal errors:\n  line 4: field colour not found"},
			},
			want: "Error: failed to load configuration\n\n" +
				"  Caused by:\n" +
				"    → yaml: unmarshal errors:\n" +
				"        line 4: field colour not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.FormatErrorEntriesExported(tt.entries))
		})
	}
}
