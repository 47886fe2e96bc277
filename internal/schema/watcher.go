package schema

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/MirrexOne/sqlctx/internal/logging"
)

// DefaultReloadDelay collapses the burst of events an editor save produces.
const DefaultReloadDelay = 200 * time.Millisecond

// ReloadFunc receives every successfully reloaded schema.
type ReloadFunc func(*Schema)

// Watcher reloads a schema file when it changes on disk.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	debounce func(func())
	onReload ReloadFunc
	log      *zap.SugaredLogger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewWatcher watches path. The parent directory is watched rather than the
// file so that editors replacing the file by rename are noticed.
func NewWatcher(path string, delay time.Duration, onReload ReloadFunc, log *zap.SugaredLogger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	return &Watcher{
		path:     abs,
		fs:       fsw,
		debounce: debounce.New(delay),
		onReload: onReload,
		log:      logging.OrNop(log),
		done:     make(chan struct{}),
	}, nil
}

// Start runs the event loop in a goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop()
	}()
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.log.Debugw("schema file changed", "file", event.Name, "op", event.Op.String())
			w.debounce(w.reload)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warnw("schema watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	s, err := LoadFile(w.path)
	if err != nil {
		// Half written files are common mid-save; keep the previous schema.
		w.log.Warnw("schema reload failed", "file", w.path, "error", err)
		return
	}
	w.log.Infow("schema reloaded", "file", w.path, "tables", s.Len())
	if w.onReload != nil {
		w.onReload(s)
	}
}
