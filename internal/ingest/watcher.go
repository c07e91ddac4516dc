// Package ingest feeds documents dropped into a directory through the
// engine's writer. Each *.json file holds one document or an array of
// documents; processed files are removed.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"pooldex/internal/engine"
)

// Document is the wire shape of a dropped document. A missing id gets a
// generated one.
type Document struct {
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

type Options struct {
	// FlushInterval batches filesystem events before processing.
	// Defaults to 500ms.
	FlushInterval time.Duration
}

// Ingester watches one directory until Stop.
type Ingester struct {
	eng      *engine.Engine
	dir      string
	interval time.Duration

	watcher   *fsnotify.Watcher
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
}

// Start begins watching dir. Files already present are queued immediately.
func Start(eng *engine.Engine, dir string, opts Options) (*Ingester, error) {
	dirAbs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(dirAbs)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("ingest dir %q is not a directory", dirAbs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dirAbs); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	interval := opts.FlushInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	ing := &Ingester{
		eng:      eng,
		dir:      dirAbs,
		interval: interval,
		watcher:  fsw,
		closed:   make(chan struct{}),
	}

	pending := map[string]struct{}{}
	entries, err := os.ReadDir(dirAbs)
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}
	for _, e := range entries {
		if isDocFile(e.Name()) {
			pending[filepath.Join(dirAbs, e.Name())] = struct{}{}
		}
	}

	ing.wg.Add(1)
	go ing.run(pending)
	return ing, nil
}

func (i *Ingester) Dir() string { return i.dir }

// Processed returns how many files have been indexed and removed.
func (i *Ingester) Processed() int64 { return i.processed.Load() }

// Failed returns how many files could not be parsed or committed. Failed
// files are left in place for inspection.
func (i *Ingester) Failed() int64 { return i.failed.Load() }

// Stop ends the watch and waits for in-flight processing. Idempotent.
func (i *Ingester) Stop() {
	i.closeOnce.Do(func() {
		close(i.closed)
		_ = i.watcher.Close()
	})
	i.wg.Wait()
}

func (i *Ingester) run(pending map[string]struct{}) {
	defer i.wg.Done()

	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-i.watcher.Events:
			if !ok {
				i.flush(pending)
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if isDocFile(ev.Name) {
				pending[ev.Name] = struct{}{}
			}
		case _, ok := <-i.watcher.Errors:
			if !ok {
				i.flush(pending)
				return
			}
		case <-ticker.C:
			i.flush(pending)
		case <-i.closed:
			i.flush(pending)
			return
		}
	}
}

// flush indexes every pending file through one writer and commits once.
func (i *Ingester) flush(pending map[string]struct{}) {
	if len(pending) == 0 {
		return
	}

	w := i.eng.NewWriter()
	files := make([]string, 0, len(pending))
	for path := range pending {
		delete(pending, path)
		if err := i.buffer(w, path); err != nil {
			i.failed.Add(1)
			continue
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		w.Cancel()
		return
	}

	if err := <-w.Commit(); err != nil {
		i.failed.Add(int64(len(files)))
		return
	}
	for _, path := range files {
		_ = os.Remove(path)
		i.processed.Add(1)
	}
}

func (i *Ingester) buffer(w *engine.Writer, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var docs []Document
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &docs); err != nil {
			return err
		}
	} else {
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		docs = []Document{doc}
	}

	for _, doc := range docs {
		if len(doc.Fields) == 0 {
			return fmt.Errorf("%s: document has no fields", filepath.Base(path))
		}
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		if err := w.Put(id, doc.Fields); err != nil {
			return err
		}
	}
	return nil
}

func isDocFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
