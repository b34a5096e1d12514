package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xaenox/memo-bridge/internal/classifier"
	"github.com/xaenox/memo-bridge/internal/models"
)

type fakeSource struct {
	modified string
	content  string
	readErr  error

	modifiedCalls int
	readCalls     int
}

func (f *fakeSource) LastModified(context.Context, string) string {
	f.modifiedCalls++
	return f.modified
}

func (f *fakeSource) ReadRecord(context.Context, string) (string, error) {
	f.readCalls++
	return f.content, f.readErr
}

type countingClassifier struct {
	calls int
}

func (c *countingClassifier) Classify(text string) classifier.Result {
	c.calls++
	return classifier.Result{Category: "Notion Formatting", Tags: []string{"notion"}}
}

type fakeAsker struct {
	reply string
	err   error
	calls int
	got   string
}

func (f *fakeAsker) Ask(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.got = prompt
	return f.reply, f.err
}

type fakePersister struct {
	err   error
	saved []models.Exchange
}

func (f *fakePersister) Persist(_ context.Context, ex models.Exchange) (string, error) {
	f.saved = append(f.saved, ex)
	return "record-1", f.err
}

type memCheckpoint struct {
	value   string
	saveErr error
	saves   int
	closed  bool
}

func (m *memCheckpoint) Load(context.Context) (string, error) { return m.value, nil }

func (m *memCheckpoint) Close() error {
	m.closed = true
	return nil
}

func (m *memCheckpoint) Save(_ context.Context, value string) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.value = value
	return nil
}

type harness struct {
	source     *fakeSource
	classifier *countingClassifier
	asker      *fakeAsker
	persister  *fakePersister
	checkpoint *memCheckpoint
	orch       *Orchestrator
}

func newHarness(t *testing.T, checkpoint, modified string) *harness {
	h := &harness{
		source:     &fakeSource{modified: modified, content: "page text"},
		classifier: &countingClassifier{},
		asker:      &fakeAsker{reply: "assistant reply"},
		persister:  &fakePersister{},
		checkpoint: &memCheckpoint{value: checkpoint},
	}
	h.orch = NewOrchestrator("page-1", h.source, h.classifier, h.asker, h.persister, h.checkpoint, zaptest.NewLogger(t))
	return h
}

func TestRunOnce_UnchangedIsIdle(t *testing.T) {
	h := newHarness(t, "A", "A")

	outcome, err := h.orch.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Idle, outcome)
	assert.Zero(t, h.source.readCalls)
	assert.Zero(t, h.classifier.calls)
	assert.Zero(t, h.asker.calls)
	assert.Empty(t, h.persister.saved)
	assert.Zero(t, h.checkpoint.saves)
	assert.Equal(t, "A", h.checkpoint.value)
}

func TestRunOnce_TimestampsCompareAsStrings(t *testing.T) {
	h := newHarness(t, "2024-05-01T10:00:00.000Z", "2024-05-01T10:00:00Z")

	outcome, err := h.orch.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Synced, outcome)
}

func TestRunOnce_ReadFailureKeepsCheckpoint(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.source.readErr = errors.New("notion unavailable")

	outcome, err := h.orch.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Aborted, outcome)
	assert.Equal(t, "A", h.checkpoint.value)
	assert.Zero(t, h.checkpoint.saves)
	assert.Zero(t, h.classifier.calls)
	assert.Zero(t, h.asker.calls)
}

func TestRunOnce_ChangeIsSynced(t *testing.T) {
	h := newHarness(t, "A", "B")

	outcome, err := h.orch.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Synced, outcome)
	assert.Equal(t, 1, h.classifier.calls)
	assert.Equal(t, 1, h.asker.calls)
	assert.Equal(t, "page text", h.asker.got)
	require.Len(t, h.persister.saved, 1)
	saved := h.persister.saved[0]
	assert.Equal(t, "page text", saved.Prompt)
	assert.Equal(t, "assistant reply", saved.Reply)
	assert.Equal(t, "Notion Formatting", saved.Category)
	assert.Equal(t, []string{"notion"}, saved.Tags)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Equal(t, "B", h.checkpoint.value)
}

func TestRunOnce_AskFailureStillAdvancesCheckpoint(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.asker.err = errors.New("run timed out")

	outcome, err := h.orch.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Synced, outcome)
	assert.Equal(t, 1, h.asker.calls)
	assert.Empty(t, h.persister.saved)
	assert.Equal(t, "B", h.checkpoint.value)
}

func TestRunOnce_PersistFailureStillAdvancesCheckpoint(t *testing.T) {
	h := newHarness(t, "A", "B")
	h.persister.err = errors.New("append failed")

	outcome, err := h.orch.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Synced, outcome)
	assert.Len(t, h.persister.saved, 1)
	assert.Equal(t, "B", h.checkpoint.value)
}

func TestRunOnce_CheckpointSaveError(t *testing.T) {
	h := newHarness(t, "", "B")
	h.checkpoint.saveErr = errors.New("disk full")

	outcome, err := h.orch.RunOnce(context.Background())

	require.Error(t, err)
	assert.Equal(t, Synced, outcome)
	assert.ErrorIs(t, err, h.checkpoint.saveErr)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "aborted", Aborted.String())
	assert.Equal(t, "synced", Synced.String())
}

func TestOrchestrator_CloseReleasesCheckpoint(t *testing.T) {
	h := newHarness(t, "A", "A")

	require.NoError(t, h.orch.Close())

	assert.True(t, h.checkpoint.closed)
}
