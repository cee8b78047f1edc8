package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJournal(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	at := time.Date(2024, 9, 12, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{RunID: "run-a", FileHash: "h1", FileName: "belchatow.csv", Row: 1, Month: "09", Category: "1.", Status: StatusSent, CreatedAt: at},
		{RunID: "run-a", FileHash: "h1", FileName: "belchatow.csv", Row: 2, Month: "09", Category: "2.", Status: StatusFailed, Detail: "Błąd wysyłania", CreatedAt: at},
		{RunID: "run-a", FileHash: "h2", FileName: "other.csv", Row: 1, Status: StatusSent, CreatedAt: at},
		{RunID: "run-b", FileHash: "h1", FileName: "belchatow.csv", Row: 2, Month: "09", Category: "2.", Status: StatusSent, CreatedAt: at.Add(time.Hour)},
		{RunID: "run-b", FileHash: "h1", FileName: "belchatow.csv", Row: 3, Month: "10", Status: StatusDryRun, CreatedAt: at.Add(time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, store.Record(ctx, e))
	}

	succeeded, err := store.Succeeded(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, map[int]bool{1: true, 2: true}, succeeded)

	succeeded, err = store.Succeeded(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, succeeded)

	listed, err := store.List(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, listed, 4)
	require.Equal(t, "Błąd wysyłania", listed[1].Detail)
	require.Equal(t, StatusFailed, listed[1].Status)
	require.True(t, at.Equal(listed[0].CreatedAt))
	require.Equal(t, StatusDryRun, listed[3].Status)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-b", runs[0].ID)
	require.Equal(t, 1, runs[0].Sent)
	require.Equal(t, "run-a", runs[1].ID)
	require.Equal(t, 2, runs[1].Sent)
	require.Equal(t, 1, runs[1].Failed)
	require.True(t, at.Equal(runs[1].Started))
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), Entry{RunID: "r", FileHash: "h", Row: 1, Status: StatusSent, CreatedAt: time.Now()}))
	require.NoError(t, store.Close())

	// reopening keeps the data and tolerates the existing schema
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	succeeded, err := store.Succeeded(context.Background(), "h")
	require.NoError(t, err)
	require.True(t, succeeded[1])
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0600))

	hash, err := HashFile(path)
	require.NoError(t, err)
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hash)

	_, err = HashFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestNewRunID(t *testing.T) {
	a, err := NewRunID()
	require.NoError(t, err)
	b, err := NewRunID()
	require.NoError(t, err)
	require.Len(t, a, 12)
	require.NotEqual(t, a, b)
}
