package task

import (
	"encoding/json"
	"testing"
	"time"

	"byteboard/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(storage.NewMemoryStore(), zerolog.Nop())
}

func TestStore_CreateAssignsFirstID(t *testing.T) {
	s := newTestStore()

	created, err := s.Create(Task{
		Title:    "New Test Task",
		Type:     TypePersonal,
		Done:     false,
		DueDate:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Tags:     []string{"test", "new"},
		Priority: PriorityLow,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
}

func TestStore_CreateIDMonotonic(t *testing.T) {
	s := newTestStore()

	for i := 1; i <= 5; i++ {
		created, err := s.Create(validTask())
		require.NoError(t, err)
		assert.Equal(t, i, created.ID)
	}
}

func TestStore_DeletedIDNotReusedUnlessMax(t *testing.T) {
	s := newTestStore()

	for i := 0; i < 3; i++ {
		_, err := s.Create(validTask())
		require.NoError(t, err)
	}

	deleted, err := s.Delete(2)
	require.NoError(t, err)
	require.True(t, deleted)

	created, err := s.Create(validTask())
	require.NoError(t, err)
	assert.Equal(t, 4, created.ID)
}

func TestStore_CreateValidationFailureWritesNothing(t *testing.T) {
	s := newTestStore()

	bad := validTask()
	bad.Title = ""
	_, err := s.Create(bad)
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Empty(t, s.All())
}

func TestStore_CreateDefaultsNilTags(t *testing.T) {
	s := newTestStore()

	data := validTask()
	data.Tags = nil
	created, err := s.Create(data)
	require.NoError(t, err)
	assert.Equal(t, []string{}, created.Tags)
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore()

	created, err := s.Create(validTask())
	require.NoError(t, err)

	got, ok := s.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, created.Title, got.Title)
	assert.True(t, created.DueDate.Equal(got.DueDate))
	assert.Equal(t, created, got)
}

func TestStore_GetMissingID(t *testing.T) {
	s := newTestStore()

	_, ok := s.Get(999)
	assert.False(t, ok)
}

func TestStore_UpdatePartialPatch(t *testing.T) {
	s := newTestStore()

	created, err := s.Create(validTask())
	require.NoError(t, err)

	title := "updated title"
	updated, found, err := s.Update(created.ID, Patch{Title: &title})
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "updated title", updated.Title)
	// Untouched fields survive the patch.
	assert.Equal(t, created.Priority, updated.Priority)
	assert.True(t, created.DueDate.Equal(updated.DueDate))
	assert.Equal(t, created.Tags, updated.Tags)
}

func TestStore_UpdateMissingID(t *testing.T) {
	s := newTestStore()

	done := true
	_, found, err := s.Update(42, Patch{Done: &done})
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStore_UpdateValidationFailureLeavesStoreUnchanged(t *testing.T) {
	s := newTestStore()

	created, err := s.Create(validTask())
	require.NoError(t, err)

	empty := ""
	_, found, err := s.Update(created.ID, Patch{Title: &empty})
	require.True(t, found)
	require.ErrorIs(t, err, ErrEmptyTitle)

	got, ok := s.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, created, got)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	s := newTestStore()

	created, err := s.Create(validTask())
	require.NoError(t, err)

	deleted, err := s.Delete(created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, s.All())
}

func TestStore_DeleteMissingIDLeavesCollection(t *testing.T) {
	s := newTestStore()

	for i := 0; i < 3; i++ {
		_, err := s.Create(validTask())
		require.NoError(t, err)
	}

	deleted, err := s.Delete(999)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, s.All(), 3)
}

func TestStore_AllMergesRemoteWithTransientIDs(t *testing.T) {
	s := newTestStore()

	_, err := s.Create(validTask())
	require.NoError(t, err)
	_, err = s.Create(validTask())
	require.NoError(t, err)

	s.SetRemote([]Task{
		{Type: TypeIssue, Title: "fix bug", DueDate: time.Now(), Priority: PriorityHigh, Tags: []string{"repo"}},
		{Type: TypePR, Title: "add feature", DueDate: time.Now(), Priority: PriorityHigh, Tags: []string{"repo"}},
	})

	all := s.All()
	require.Len(t, all, 4)
	assert.Equal(t, 3, all[2].ID)
	assert.Equal(t, 4, all[3].ID)

	// The synthetic ids never reach storage.
	raw, ok := storageDump(s)
	require.True(t, ok)
	assert.Len(t, raw, 2)
}

func TestStore_RemoteSnapshotReplaced(t *testing.T) {
	s := newTestStore()

	s.SetRemote([]Task{{Type: TypeIssue, Title: "a", DueDate: time.Now(), Priority: PriorityHigh, Tags: []string{}}})
	require.Len(t, s.All(), 1)

	s.SetRemote(nil)
	assert.Empty(t, s.All())
}

func TestStore_DueDateSurvivesPersistence(t *testing.T) {
	kv := storage.NewMemoryStore()

	s := NewStore(kv, zerolog.Nop())
	created, err := s.Create(validTask())
	require.NoError(t, err)

	// A fresh store over the same kv sees the same date.
	s2 := NewStore(kv, zerolog.Nop())
	got, ok := s2.Get(created.ID)
	require.True(t, ok)
	assert.True(t, created.DueDate.Equal(got.DueDate))
}

func TestStore_CorruptCollectionTreatedAsEmpty(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(StorageKey, "not json"))

	s := NewStore(kv, zerolog.Nop())
	assert.Empty(t, s.All())
}

func storageDump(s *Store) ([]Task, bool) {
	raw, ok := s.kv.Get(StorageKey)
	if !ok {
		return nil, false
	}
	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, false
	}
	return tasks, true
}
