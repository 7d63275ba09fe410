package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotIsSortedAndSkipsDirs(t *testing.T) {
	fsys := fstest.MapFS{
		"js/screenshots.js": {Data: []byte("x")},
		"index.php":         {Data: []byte("<html></html>")},
		"css/styles.css":    {Data: []byte("a{}")},
	}

	manifest, err := Snapshot(fsys)
	require.NoError(t, err)
	require.Len(t, manifest, 3)
	assert.Equal(t, "css/styles.css", manifest[0].Path)
	assert.Equal(t, "index.php", manifest[1].Path)
	assert.Equal(t, "js/screenshots.js", manifest[2].Path)
	assert.Equal(t, int64(13), manifest[1].Size)
}

func TestPollReportsChangesOnce(t *testing.T) {
	fsys := fstest.MapFS{
		"index.php":      {Data: []byte("v1")},
		"css/styles.css": {Data: []byte("a{}")},
	}
	w := New(fsys, time.Second, nil)

	changed, err := w.Poll()
	require.NoError(t, err)
	assert.Empty(t, changed, "first poll records the baseline")

	changed, err = w.Poll()
	require.NoError(t, err)
	assert.Empty(t, changed)

	fsys["index.php"] = &fstest.MapFile{Data: []byte("version 2")}
	changed, err = w.Poll()
	require.NoError(t, err)
	assert.Equal(t, []string{"index.php"}, changed)

	changed, err = w.Poll()
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestRunNotifiesOnRedeploy(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.php"), []byte("v1"), 0644))

	var mu sync.Mutex
	var calls [][]string
	w := New(os.DirFS(root), 20*time.Millisecond, func(changed []string) {
		mu.Lock()
		calls = append(calls, changed)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	// Let the baseline snapshot happen before redeploying.
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "styles.css"), []byte("a{}"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"styles.css"}, calls[0])
}
