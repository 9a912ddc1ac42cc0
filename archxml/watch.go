// Package archxml serves a target-description XML document (the blob
// gdbstub.Arch.TargetDescriptionXML hands back for qXfer:features:read)
// from a file on disk, reloading it whenever the file changes so a target
// author can edit register layouts without restarting the server
// (SPEC_FULL.md §4.9).
package archxml

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Source holds the current contents of a watched XML file.
type Source struct {
	mu      sync.RWMutex
	path    string
	data    []byte
	watcher *fsnotify.Watcher
	onError func(error)
}

// NewSource loads path and begins watching it for changes. onError, if
// non-nil, is called from the watch goroutine whenever a reload fails; it
// must not block.
func NewSource(path string, onError func(error)) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(path); err != nil {
		_ = w.Close()

		return nil, err
	}

	s := &Source{path: path, data: data, watcher: w, onError: onError}

	go s.watch()

	return s, nil
}

func (s *Source) watch() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.reload()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}

			if s.onError != nil {
				s.onError(err)
			}
		}
	}
}

func (s *Source) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if s.onError != nil {
			s.onError(err)
		}

		return
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
}

// XML returns a copy of the current document. ok is false when the file
// was empty at the initial load or at the last successful reload; callers
// typically wire this straight into Arch.TargetDescriptionXML.
func (s *Source) XML() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data) == 0 {
		return nil, false
	}

	out := make([]byte, len(s.data))
	copy(out, s.data)

	return out, true
}

// Close stops watching the file.
func (s *Source) Close() error { return s.watcher.Close() }
