package scenefile

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay quiet before its change is
// reported. Editors often write a file several times per save.
const DefaultSettle = 100 * time.Millisecond

type ChangeKind int

const (
	ChangeScene ChangeKind = iota
	ChangeScript
)

func (k ChangeKind) String() string {
	if k == ChangeScript {
		return "script"
	}
	return "scene"
}

// Change is one settled edit of a scene or script file. Name is relative to
// the watched directory, the same form scene files use to reference scripts.
type Change struct {
	Name string
	Path string
	Kind ChangeKind
}

// Watcher reports settled changes to scene and script files in a set of
// directories. Each burst of writes to a file yields one Change.
type Watcher struct {
	fs      *fsnotify.Watcher
	settle  time.Duration
	Events  chan Change
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	return NewWatcherSettle(DefaultSettle, dirs...)
}

// NewWatcherSettle is NewWatcher with a custom settle delay.
func NewWatcherSettle(settle time.Duration, dirs ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	w := &Watcher{
		fs:      fs,
		settle:  settle,
		Events:  make(chan Change, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	pending := make(map[string]Change)
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			change, ok := classify(ev)
			if !ok {
				continue
			}
			pending[change.Name] = change
			timer.Reset(w.settle)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-timer.C:
			if !w.flush(pending) {
				return
			}
		}
	}
}

// flush sends pending changes in name order and reports false once closed.
func (w *Watcher) flush(pending map[string]Change) bool {
	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		select {
		case w.Events <- pending[name]:
		case <-w.closeCh:
			return false
		}
	}
	clear(pending)
	return true
}

func classify(ev fsnotify.Event) (Change, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return Change{}, false
	}
	var kind ChangeKind
	switch strings.ToLower(filepath.Ext(ev.Name)) {
	case ".yaml", ".yml":
		kind = ChangeScene
	case ".tengo":
		kind = ChangeScript
	default:
		return Change{}, false
	}
	return Change{Name: filepath.Base(ev.Name), Path: ev.Name, Kind: kind}, true
}
