package core

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/JonMunkholm/csvxform/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedFile struct {
	runID   string
	pair    FilePair
	result  *FileResult
	fileErr error
}

type fakeHistory struct {
	mu    sync.Mutex
	files []recordedFile
	err   error
}

func (h *fakeHistory) RecordFile(ctx context.Context, pair FilePair, result *FileResult, fileErr error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files = append(h.files, recordedFile{logging.RunIDFromContext(ctx), pair, result, fileErr})
	return h.err
}

func newTestService(t *testing.T, opts ServiceOptions) *Service {
	t.Helper()
	opts.Logger = logging.New(io.Discard, "debug", "text")
	return NewService(&Transformer{Layout: testLayout(t), Verbose: true}, opts)
}

func setupDirs(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte(content), 0o644))
	}
	return in, out
}

func TestService_Run(t *testing.T) {
	in, out := setupDirs(t, map[string]string{
		"a.csv":     "H\nSEC ID,QTY APPROVED\nA,1\nB,2\n",
		"b.csv":     "H\nSEC ID,QTY APPROVED\nC,3\n",
		"notes.txt": "ignored",
	})
	hist := &fakeHistory{}

	summary, err := newTestService(t, ServiceOptions{History: hist}).Run(context.Background(), in, out)
	require.NoError(t, err)

	_, parseErr := uuid.Parse(summary.RunID)
	assert.NoError(t, parseErr, "run ID is a UUID")
	assert.Len(t, summary.Files, 2)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, 3, summary.Written())
	assert.Equal(t, 0, summary.Failed())
	assert.Positive(t, summary.Duration)

	for _, f := range summary.Files {
		assert.Equal(t, summary.RunID, f.RunID)
	}
	assert.FileExists(t, filepath.Join(out, "a.csv"))
	assert.FileExists(t, filepath.Join(out, "b.csv"))
	assert.NoFileExists(t, filepath.Join(out, "notes.txt"))

	require.Len(t, hist.files, 2)
	for _, rec := range hist.files {
		assert.Equal(t, summary.RunID, rec.runID)
		assert.NoError(t, rec.fileErr)
	}
}

func TestService_StopsOnFileError(t *testing.T) {
	in, out := setupDirs(t, map[string]string{
		"a.csv": "",
		"b.csv": "H\nSEC ID\nA\n",
	})
	hist := &fakeHistory{}

	summary, err := newTestService(t, ServiceOptions{History: hist}).Run(context.Background(), in, out)

	require.ErrorIs(t, err, ErrEmptyFile)
	require.NotNil(t, summary)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, filepath.Join(in, "a.csv"), summary.Errors[0].Pair.Input)
	assert.Empty(t, summary.Files)
	assert.NoFileExists(t, filepath.Join(out, "b.csv"), "later files are not processed")

	require.Len(t, hist.files, 1)
	assert.Nil(t, hist.files[0].result)
	assert.ErrorIs(t, hist.files[0].fileErr, ErrEmptyFile)
}

func TestService_ContinueOnError(t *testing.T) {
	in, out := setupDirs(t, map[string]string{
		"a.csv": "",
		"b.csv": "H\nSEC ID\nA\n",
	})

	summary, err := newTestService(t, ServiceOptions{ContinueOnError: true}).Run(context.Background(), in, out)

	require.NoError(t, err)
	require.Len(t, summary.Errors, 1)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, 1, summary.Written())
	assert.FileExists(t, filepath.Join(out, "b.csv"))
}

func TestService_HistoryErrorIsNotFatal(t *testing.T) {
	in, out := setupDirs(t, map[string]string{"a.csv": "H\nSEC ID\nA\n"})
	hist := &fakeHistory{err: errors.New("connection refused")}

	summary, err := newTestService(t, ServiceOptions{History: hist}).Run(context.Background(), in, out)

	require.NoError(t, err)
	assert.Len(t, summary.Files, 1)
	assert.Len(t, hist.files, 1)
}

func TestService_MissingInputDir(t *testing.T) {
	_, err := newTestService(t, ServiceOptions{}).Run(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestService_Cancelled(t *testing.T) {
	in, out := setupDirs(t, map[string]string{"a.csv": "H\nSEC ID\nA\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newTestService(t, ServiceOptions{}).Run(ctx, in, out)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Files)
	assert.NoFileExists(t, filepath.Join(out, "a.csv"))
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(&Transformer{}, ServiceOptions{})
	assert.Equal(t, DefaultExtension, s.opts.Extension)
}
