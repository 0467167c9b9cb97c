package settings

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/radiotoggle/internal/errors"
)

// FileStore persists settings as a flat YAML mapping and watches the file so
// writes from other processes reach watchers too.
type FileStore struct {
	path     string
	logger   *slog.Logger
	mu       sync.RWMutex
	values   map[string]int
	watchers watchers
	// written is the file content last written or loaded by this store.
	written  []byte

	watcher   *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewFileStore loads path (a missing file is an empty store) and starts
// watching its directory for external writers.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.InvalidInputf("settings path must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	values, err := decodeValues(data)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating settings watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watching settings directory: %w", err)
	}

	s := &FileStore{
		path:    path,
		logger:  logger,
		values:  values,
		written: data,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	s.wg.Go(s.watchLoop)

	logger.Debug("Settings store opened", "path", path, "keys", len(values))
	return s, nil
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// GetInt implements Store.
func (s *FileStore) GetInt(key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return 0, errors.NotFoundf("setting %q", key)
	}
	return v, nil
}

// PutInt implements Store. The file is replaced atomically and watchers run
// synchronously once it is on disk.
func (s *FileStore) PutInt(key string, value int) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	prev, existed := s.values[key]
	s.values[key] = value
	data, err := writeValues(s.path, s.values)
	if err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		s.mu.Unlock()
		return errors.WrapErrorf(err, "persisting setting %q", key)
	}
	s.written = data
	s.mu.Unlock()

	s.watchers.notify(key)
	return nil
}

// Watch implements Store.
func (s *FileStore) Watch(key string, fn WatchFunc) (func(), error) {
	return s.watchers.add(key, fn)
}

// Close stops the file watcher.
func (s *FileStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.watcher.Close()
		s.wg.Wait()
	})
	return err
}

func (s *FileStore) watchLoop() {
	name := filepath.Base(s.path)
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.reload()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Settings watcher error", "error", err)
		}
	}
}

// reload re-reads the file and notifies watchers of every key whose value
// changed. Content matching the store's own last write is skipped, so events
// for earlier in-process writes never roll values back.
func (s *FileStore) reload() {
	s.mu.Lock()
	data, err := readFile(s.path)
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("Failed to reload settings", "path", s.path, "error", err)
		return
	}
	if bytes.Equal(data, s.written) {
		s.mu.Unlock()
		return
	}
	values, err := decodeValues(data)
	if err != nil {
		s.mu.Unlock()
		// Partial writes from other tools surface here; the next event retries.
		s.logger.Debug("Failed to reload settings", "path", s.path, "error", err)
		return
	}
	changed := diffKeys(s.values, values)
	s.values = values
	s.written = data
	s.mu.Unlock()

	for _, key := range changed {
		s.logger.Debug("Setting changed externally", "key", key)
		s.watchers.notify(key)
	}
}

func diffKeys(old, cur map[string]int) []string {
	var changed []string
	for k, v := range cur {
		if ov, ok := old[k]; !ok || ov != v {
			changed = append(changed, k)
		}
	}
	for k := range old {
		if _, ok := cur[k]; !ok {
			changed = append(changed, k)
		}
	}
	return changed
}

// readFile returns nil content for a missing file.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return data, nil
}

func decodeValues(data []byte) (map[string]int, error) {
	values := make(map[string]int)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if values == nil {
		values = make(map[string]int)
	}
	return values, nil
}

func writeValues(path string, values map[string]int) ([]byte, error) {
	data, err := yaml.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, err
	}
	return data, nil
}
