package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archmap/internal/config"
	"archmap/internal/engine"
	"archmap/internal/ignore"
)

func TestWatcherAppliesEdits(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte("def main():\n    pass\n"), 0o644))

	cfg := config.Default()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(root, cfg, log)
	require.NoError(t, err)
	_, err = eng.BuildFull(context.Background())
	require.NoError(t, err)

	patterns := append([]string(nil), cfg.IgnorePatterns...)
	patterns = append(patterns, cfg.IndexFile)
	filter := ignore.New(root, patterns)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = New(eng, root, filter, 50*time.Millisecond, log).Run(ctx)
	}()

	// Give the watcher a moment to register its directories.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "extra.py"), []byte("def added():\n    pass\n"), 0o644))

	deadline := time.Now().Add(10 * time.Second)
	for {
		idx, lerr := eng.Load()
		if lerr == nil {
			if _, ok := idx.Files["extra.py"]; ok {
				break
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("watcher never indexed extra.py")
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}

	idx, err := eng.Load()
	require.NoError(t, err)
	assert.Contains(t, idx.Files, "extra.py")
	assert.NotNil(t, idx.Files["extra.py"].Lookup("added"))
}
