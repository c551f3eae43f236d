package browse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryPersister struct {
	data    string
	stored  bool
	loadErr error
	saves   int
}

func (m *memoryPersister) Load(context.Context) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if !m.stored {
		return "", ErrNotStored
	}
	return m.data, nil
}

func (m *memoryPersister) Save(_ context.Context, data string) error {
	m.data = data
	m.stored = true
	m.saves++
	return nil
}

func (m *memoryPersister) Remove(context.Context) error {
	m.data = ""
	m.stored = false
	return nil
}

func TestHistory_RecordUpsertsAndCaps(t *testing.T) {
	ctx := context.Background()
	store := &memoryPersister{}
	h := NewHistory(store, zap.NewNop())
	h.Load(ctx)

	for _, q := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, h.Record(ctx, q, 1))
	}
	entries := h.Entries()
	require.Len(t, entries, HistoryCap)
	assert.Equal(t, "f", entries[0].Query)
	assert.Equal(t, "b", entries[4].Query)

	require.NoError(t, h.Record(ctx, "c", 9))
	entries = h.Entries()
	require.Len(t, entries, HistoryCap)
	assert.Equal(t, RecentSearch{Query: "c", HitCount: 9}, entries[0])

	seen := map[string]bool{}
	for _, e := range entries {
		assert.False(t, seen[e.Query], "duplicate %q", e.Query)
		seen[e.Query] = true
	}
	assert.Equal(t, 7, store.saves)
}

func TestHistory_PersistsAcrossLoads(t *testing.T) {
	ctx := context.Background()
	store := &memoryPersister{}

	h := NewHistory(store, zap.NewNop())
	require.NoError(t, h.Record(ctx, "tolkien", 2))
	assert.JSONEq(t, `[{"query":"tolkien","hitCount":2}]`, store.data)

	reloaded := NewHistory(store, zap.NewNop())
	assert.Equal(t, []RecentSearch{{Query: "tolkien", HitCount: 2}}, reloaded.Load(ctx))
}

func TestHistory_LoadNeverFails(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		store *memoryPersister
	}{
		{name: "absent", store: &memoryPersister{}},
		{name: "malformed", store: &memoryPersister{data: "{not json", stored: true}},
		{name: "storage error", store: &memoryPersister{loadErr: errors.New("disk gone")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(tt.store, zap.NewNop())
			assert.Empty(t, h.Load(ctx))
		})
	}
}

func TestHistory_LoadDedupesAndCaps(t *testing.T) {
	store := &memoryPersister{stored: true, data: `[
		{"query":"a","hitCount":1},{"query":"a","hitCount":2},{"query":"b","hitCount":0},
		{"query":"c","hitCount":0},{"query":"d","hitCount":0},{"query":"e","hitCount":0},
		{"query":"f","hitCount":0}]`}

	entries := NewHistory(store, zap.NewNop()).Load(context.Background())
	require.Len(t, entries, HistoryCap)
	assert.Equal(t, RecentSearch{Query: "a", HitCount: 1}, entries[0])
	assert.Equal(t, "e", entries[4].Query)
}

func TestHistory_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	store := &memoryPersister{}
	h := NewHistory(store, zap.NewNop())

	require.NoError(t, h.Record(ctx, "x", 1))
	require.NoError(t, h.Record(ctx, "y", 2))
	require.NoError(t, h.Remove(ctx, "x"))
	assert.Equal(t, []RecentSearch{{Query: "y", HitCount: 2}}, h.Entries())

	require.NoError(t, h.Clear(ctx))
	assert.Empty(t, h.Entries())
	assert.False(t, store.stored, "key must be removed, not emptied")
}
