package convlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Session describes one stored conversation.
type Session struct {
	Session   string
	Path      string
	StartedAt time.Time
	ClosedAt  *time.Time
}

// ListSessions returns conversations sorted by newest start time first.
func ListSessions(rootDir string) ([]Session, error) {
	if rootDir == "" {
		var err error

		rootDir, err = DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolve history root directory: %w", err)
		}
	}

	entries, err := os.ReadDir(rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("list history sessions: %w", err)
	}

	sessions := make([]Session, 0, len(entries))
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}

		dir := filepath.Join(rootDir, ent.Name())

		data, err := os.ReadFile(filepath.Join(dir, metaFileName)) //nolint:gosec // controlled directory
		if err != nil {
			continue
		}

		var meta Meta
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		sessions = append(sessions, Session{
			Session:   meta.Session,
			Path:      dir,
			StartedAt: meta.StartedAt,
			ClosedAt:  meta.ClosedAt,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})

	return sessions, nil
}

// ReadExchanges reads all exchanges for a session in append order.
func ReadExchanges(rootDir, session string) (exchanges []Exchange, err error) {
	if validateErr := validateSession(session); validateErr != nil {
		return nil, validateErr
	}

	if rootDir == "" {
		var resolveErr error

		rootDir, resolveErr = DefaultDir()
		if resolveErr != nil {
			return nil, fmt.Errorf("resolve history root directory: %w", resolveErr)
		}
	}

	path := filepath.Join(rootDir, session, exchangesFileName)

	file, err := os.Open(path) //nolint:gosec // controlled path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("open exchange log: %w", err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		trimmed := bytes.TrimSpace(scanner.Bytes())
		if len(trimmed) == 0 {
			continue
		}

		var ex Exchange
		if err := json.Unmarshal(trimmed, &ex); err != nil {
			continue
		}

		exchanges = append(exchanges, ex)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scan exchange log: %w", err)
	}

	return exchanges, nil
}

// Tail returns the last n exchanges for a session.
func Tail(rootDir, session string, n int) ([]Exchange, error) {
	if n <= 0 {
		return nil, nil
	}

	exchanges, err := ReadExchanges(rootDir, session)
	if err != nil {
		return nil, err
	}

	if len(exchanges) > n {
		exchanges = exchanges[len(exchanges)-n:]
	}

	return exchanges, nil
}

// PruneOlderThan removes conversation directories older than the cutoff.
func PruneOlderThan(rootDir string, cutoff time.Time) (int, error) {
	sessions, err := ListSessions(rootDir)
	if err != nil {
		return 0, err
	}

	removed := 0

	for _, session := range sessions {
		referenceTime := session.StartedAt
		if session.ClosedAt != nil {
			referenceTime = *session.ClosedAt
		}

		if referenceTime.Before(cutoff) {
			if err := os.RemoveAll(session.Path); err != nil {
				return removed, fmt.Errorf("prune history session %q: %w", session.Session, err)
			}

			removed++
		}
	}

	return removed, nil
}

// DefaultRetention returns the default prune window.
func DefaultRetention() time.Duration {
	return defaultRetentionHours * time.Hour
}
