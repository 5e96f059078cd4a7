package remediate

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/vigil-sh/vigil/internal/core/domain"
	"github.com/vigil-sh/vigil/internal/logger"
)

// SnippetStore holds the fail/recover command lists loaded from the
// operator's config snippet files. Files are plain text, one fully-qualified
// command per line; blank lines and device-style comment lines (! or #) are
// skipped. The store watches both files and reloads between cycles, so an
// operator edit never requires a daemon restart.
type SnippetStore struct {
	logger      *logger.StyledLogger
	mu          sync.RWMutex
	failPath    string
	recoverPath string
	fail        []string
	recoverCmds []string
}

// NewSnippetStore loads both snippet files; an unreadable file is a fatal
// configuration error at startup.
func NewSnippetStore(failPath, recoverPath string, log *logger.StyledLogger) (*SnippetStore, error) {
	store := &SnippetStore{
		logger:      log,
		failPath:    failPath,
		recoverPath: recoverPath,
	}
	if err := store.reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Commands returns the command list for a transition, in file order.
func (s *SnippetStore) Commands(event domain.TransitionEvent) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var source []string
	switch event {
	case domain.TransitionDown:
		source = s.fail
	case domain.TransitionUp:
		source = s.recoverCmds
	default:
		return nil
	}

	commands := make([]string, len(source))
	copy(commands, source)
	return commands
}

// Reconfigure points the store at new snippet paths and reloads. The old
// lists stay active if the new files cannot be read.
func (s *SnippetStore) Reconfigure(failPath, recoverPath string) error {
	s.mu.Lock()
	oldFail, oldRecover := s.failPath, s.recoverPath
	s.failPath, s.recoverPath = failPath, recoverPath
	s.mu.Unlock()

	if err := s.reload(); err != nil {
		s.mu.Lock()
		s.failPath, s.recoverPath = oldFail, oldRecover
		s.mu.Unlock()
		return err
	}
	return nil
}

// Watch reloads the snippet lists when either file changes on disk. The
// parent directories are watched so editors that replace files atomically
// still trigger a reload. Blocks until the context is cancelled.
func (s *SnippetStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("snippet watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	watched := make(map[string]struct{})
	for _, path := range []string{s.failPath, s.recoverPath} {
		dir := filepath.Dir(path)
		if _, ok := watched[dir]; ok {
			continue
		}
		watched[dir] = struct{}{}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("snippet watcher on %s: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.isSnippetEvent(event) {
				continue
			}
			if err := s.reload(); err != nil {
				s.logger.Error("Failed to reload config snippet", "phase", "config",
					"file", event.Name, "error", err)
				continue
			}
			s.logger.Info("Config snippet reloaded", "file", event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Snippet watcher error", "phase", "config", "error", err)
		}
	}
}

func (s *SnippetStore) isSnippetEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return event.Name == s.failPath || event.Name == s.recoverPath
}

func (s *SnippetStore) reload() error {
	s.mu.RLock()
	failPath, recoverPath := s.failPath, s.recoverPath
	s.mu.RUnlock()

	fail, err := loadSnippet(failPath)
	if err != nil {
		return fmt.Errorf("conf_fail: %w", err)
	}
	recoverCmds, err := loadSnippet(recoverPath)
	if err != nil {
		return fmt.Errorf("conf_recover: %w", err)
	}

	s.mu.Lock()
	s.fail = fail
	s.recoverCmds = recoverCmds
	s.mu.Unlock()
	return nil
}

func loadSnippet(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	var commands []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") || strings.HasPrefix(line, "#") {
			continue
		}
		commands = append(commands, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return commands, nil
}
