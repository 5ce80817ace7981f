// Package importer pulls files from a drop directory into the local
// store. Markdown files become recipe items, known image formats become
// image items; the file's base name is the item name and its mtime the
// logical timestamp.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rjeczalik/notify"

	"github.com/forkedapp/forked/internal/content"
	"github.com/forkedapp/forked/internal/recipemd"
	"github.com/forkedapp/forked/internal/store"
)

const (
	eventBufferSize = 64

	// debounceTimeout lets editors finish their write-rename dance
	// before the file is read.
	debounceTimeout = 500 * time.Millisecond
)

var (
	// ErrUnsupported marks files that belong to no content class.
	ErrUnsupported = errors.New("unsupported file type")

	// ErrUnchanged marks files whose content already matches the store.
	ErrUnchanged = errors.New("content unchanged")
)

var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// Summary counts the outcome of an import pass.
type Summary struct {
	Imported int
	Skipped  int
}

type Importer struct {
	store *store.Store
	dir   string

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

func New(st *store.Store, dir string) *Importer {
	return &Importer{
		store:  st,
		dir:    dir,
		timers: make(map[string]*time.Timer),
	}
}

// Dir returns the drop directory being imported from.
func (im *Importer) Dir() string {
	return im.dir
}

// Classify maps a file name to its content class.
func Classify(name string) (content.Class, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".md" || ext == ".markdown" {
		return content.ClassRecipes, nil
	}
	if _, ok := imageExts[ext]; ok {
		return content.ClassImages, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// ImportAll scans the drop directory once, importing every supported
// file. Unsupported and unchanged files count as skipped; read errors
// on individual files are logged and skipped so one bad file does not
// abort the pass.
func (im *Importer) ImportAll(ctx context.Context) (*Summary, error) {
	entries, err := os.ReadDir(im.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Summary{}, nil
		}
		return nil, fmt.Errorf("read import dir: %w", err)
	}

	sum := &Summary{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		path := filepath.Join(im.dir, entry.Name())
		item, class, err := im.ImportFile(path)
		switch {
		case errors.Is(err, ErrUnsupported), errors.Is(err, ErrUnchanged):
			sum.Skipped++
		case err != nil:
			slog.Warn("import failed", "path", path, "error", err)
			sum.Skipped++
		default:
			slog.Info("imported", "class", class, "name", item.Name, "size", humanize.Bytes(uint64(len(item.Content))))
			sum.Imported++
		}
	}
	return sum, nil
}

// ImportFile imports one file into the store. The existing item's
// RemoteID is preserved so the next sync updates rather than recreates
// the remote copy.
func (im *Importer) ImportFile(path string) (*content.Item, content.Class, error) {
	name := filepath.Base(path)
	if !content.ValidName(name) {
		return nil, "", fmt.Errorf("invalid item name %q", name)
	}

	class, err := Classify(name)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %q: %w", path, err)
	}

	if class == content.ClassRecipes {
		if _, err := recipemd.Parse(data); err != nil {
			return nil, "", fmt.Errorf("recipe %q: %w", name, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("stat %q: %w", path, err)
	}

	items, err := im.store.Items(class)
	if err != nil {
		return nil, "", err
	}

	item := content.Item{
		Name:         name,
		Content:      data,
		LastModified: info.ModTime().UnixMilli(),
	}
	if existing, ok := items.Get(name); ok {
		if bytes.Equal(existing.Content, data) {
			return nil, class, fmt.Errorf("%w: %q", ErrUnchanged, name)
		}
		item.RemoteID = existing.RemoteID
	}

	items.Upsert(item)
	if err := im.store.SetItems(class, items); err != nil {
		return nil, "", err
	}
	return &item, class, nil
}

// Watch blocks watching the drop directory until ctx is cancelled.
// Events are debounced per path so a file is imported once its writes
// settle.
func (im *Importer) Watch(ctx context.Context) error {
	if err := os.MkdirAll(im.dir, 0755); err != nil {
		return fmt.Errorf("create import dir: %w", err)
	}

	events := make(chan notify.EventInfo, eventBufferSize)
	if err := notify.Watch(im.dir, events, notify.Write, notify.Create, notify.Rename); err != nil {
		return fmt.Errorf("watch %q: %w", im.dir, err)
	}
	defer notify.Stop(events)

	slog.Info("import watch start", "dir", im.dir)

	for {
		select {
		case <-ctx.Done():
			im.drainTimers()
			im.wg.Wait()
			slog.Info("import watch stop")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			im.debounce(ev.Path())
		}
	}
}

// debounce arms a fresh per-path timer, cancelling any armed one. The
// import runs only after the path has been quiet for debounceTimeout.
func (im *Importer) debounce(path string) {
	if _, err := Classify(filepath.Base(path)); err != nil {
		return
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	if im.closed {
		return
	}
	if old, ok := im.timers[path]; ok && old.Stop() {
		im.wg.Done()
	}

	im.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(debounceTimeout, func() {
		defer im.wg.Done()

		// A newer timer or shutdown owns the path now.
		im.mu.Lock()
		if im.timers[path] != t {
			im.mu.Unlock()
			return
		}
		delete(im.timers, path)
		im.mu.Unlock()

		im.importSettled(path)
	})
	im.timers[path] = t
}

func (im *Importer) importSettled(path string) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return
	}

	item, class, err := im.ImportFile(path)
	switch {
	case errors.Is(err, ErrUnchanged):
		slog.Debug("import unchanged", "path", path)
	case err != nil:
		slog.Warn("import failed", "path", path, "error", err)
	default:
		slog.Info("imported", "class", class, "name", item.Name, "size", humanize.Bytes(uint64(len(item.Content))))
	}
}

// drainTimers cancels all armed timers. A timer that already fired
// releases its own wg slot; ones stopped here release it now. Removing
// the map entries makes in-flight timer bodies bail out.
func (im *Importer) drainTimers() {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.closed = true
	for path, t := range im.timers {
		if t.Stop() {
			im.wg.Done()
		}
		delete(im.timers, path)
	}
}
