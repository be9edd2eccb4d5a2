package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxsort/internal/logging"
	"github.com/teemow/inboxsort/internal/vsm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "inboxsort-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	centroids := map[string]vsm.Vector{
		"Work":  {0.1, 0.2, 0},
		"Promo": {0, 0, 0.7},
	}
	require.NoError(t, s.SaveSnapshot(ctx, "fp-1", centroids))

	got, err := s.LoadSnapshot(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, centroids, got)

	_, err = s.LoadSnapshot(ctx, "fp-other")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSaveSnapshotReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, "fp", map[string]vsm.Vector{"Old": {1}, "Work": {1}}))
	require.NoError(t, s.SaveSnapshot(ctx, "fp", map[string]vsm.Vector{"Work": {2}}))

	got, err := s.LoadSnapshot(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, map[string]vsm.Vector{"Work": {2}}, got)
}

func TestBatchJournal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, s.RecordBatch(ctx, "cli", vsm.LearnResult{BatchID: "b1", Learned: 2, Labels: map[string]int{"Work": 2}}))
	require.NoError(t, s.RecordBatch(ctx, "gmail", vsm.LearnResult{BatchID: "b2", Learned: 1, Skipped: 3, Labels: map[string]int{"Spam": 1}}))

	batches, err := s.RecentBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	assert.Equal(t, "b2", batches[0].ID)
	assert.Equal(t, "gmail", batches[0].Source)
	assert.Equal(t, 3, batches[0].Skipped)
	assert.Equal(t, map[string]int{"Spam": 1}, batches[0].Labels)
	assert.Equal(t, "b1", batches[1].ID)

	limited, err := s.RecentBatches(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	// batch IDs are unique
	assert.Error(t, s.RecordBatch(ctx, "cli", vsm.LearnResult{BatchID: "b1"}))
}

func trainedService(t *testing.T) *vsm.Service {
	t.Helper()
	corpus := &vsm.Corpus{Records: []vsm.Email{
		{Subject: "Meeting notes", Sender: "pm@corp.com", Label: "Work"},
		{Subject: "50% off sale", Sender: "deals@shop.com", Label: "Promotion"},
	}}
	m, _, err := vsm.Train(context.Background(), corpus, logging.Discard())
	require.NoError(t, err)

	svc := vsm.New(vsm.Options{Logger: logging.Discard()})
	t.Cleanup(func() { _ = svc.Close() })
	_, err = svc.LoadModel(m)
	require.NoError(t, err)
	return svc
}

func TestSnapshotAndRestoreService(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	svc := trainedService(t)
	_, err := svc.LearnSync(ctx, []vsm.Email{
		{Subject: "Weekend", Sender: "friend@mail.com", Body: "Let's meet for coffee on Saturday morning", Label: "Personal"},
	})
	require.NoError(t, err)

	n, err := s.Snapshot(ctx, svc)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// a fresh process with the same artifact picks the adapted centroids up
	restarted := trainedService(t)
	assert.NotContains(t, restarted.Info().Labels, "Personal")

	restored, err := s.Restore(ctx, restarted)
	require.NoError(t, err)
	assert.Equal(t, 3, restored)
	assert.Equal(t, svc.ExportModel(), restarted.ExportModel())
}

func TestRestoreIgnoresOtherVocabulary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, "someone-elses-vocabulary", map[string]vsm.Vector{"Work": {1}}))

	svc := trainedService(t)
	before := svc.ExportModel()
	n, err := s.Restore(ctx, svc)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, before, svc.ExportModel())
}

func TestSnapshotUntrained(t *testing.T) {
	s := newTestStore(t)
	svc := vsm.New(vsm.Options{Logger: logging.Discard()})
	defer svc.Close()

	n, err := s.Snapshot(context.Background(), svc)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.Restore(context.Background(), svc)
	require.NoError(t, err)
	assert.Zero(t, n)
}
