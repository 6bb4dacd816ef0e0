// Package convlog persists the conversation history of the bridge: one
// JSONL record per completed ask, grouped by tmux session name under the
// user state directory.
package convlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nanobot-dev/nanobridge/internal/paths"
)

const (
	exchangesFileName = "exchanges.jsonl"
	metaFileName      = "meta.json"

	defaultRetentionHours = 24 * 30
)

// Exchange is a single prompt/response record.
type Exchange struct {
	ID        string        `json:"id"`
	Session   string        `json:"session"`
	Prompt    string        `json:"prompt"`
	Response  string        `json:"response"`
	Completed bool          `json:"completed"`
	Elapsed   time.Duration `json:"elapsed"`
	AskedAt   time.Time     `json:"askedAt"`
}

// Meta stores session metadata for discovery and pruning.
type Meta struct {
	Session   string     `json:"session"`
	StartedAt time.Time  `json:"startedAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

// DefaultDir returns the default history directory.
func DefaultDir() (string, error) {
	return paths.HistoryDir()
}

// Options controls where a log writes.
type Options struct {
	Session string
	Dir     string
}

// Log appends exchange records for one session.
type Log struct {
	mu sync.Mutex

	session   string
	dir       string
	startedAt time.Time

	file   *os.File
	bw     *bufio.Writer
	closed bool
}

// Open creates or reopens the exchange log for a session.
func Open(opts Options) (*Log, error) {
	if err := validateSession(opts.Session); err != nil {
		return nil, err
	}

	dir := opts.Dir
	if dir == "" {
		var err error

		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}

	sessionDir := filepath.Join(dir, opts.Session)
	if err := os.MkdirAll(sessionDir, 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(sessionDir, exchangesFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // session name is validated
	if err != nil {
		return nil, fmt.Errorf("open exchange log: %w", err)
	}

	l := &Log{
		session:   opts.Session,
		dir:       sessionDir,
		startedAt: time.Now().UTC(),
		file:      f,
		bw:        bufio.NewWriterSize(f, 64*1024),
	}

	if err := l.writeMeta(&Meta{
		Session:   opts.Session,
		StartedAt: l.startedAt,
	}); err != nil {
		_ = l.Close()
		return nil, err
	}

	return l, nil
}

func (l *Log) writeMeta(meta *Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal history meta: %w", err)
	}

	if err := os.WriteFile(filepath.Join(l.dir, metaFileName), data, 0o600); err != nil {
		return fmt.Errorf("write history meta: %w", err)
	}

	return nil
}

// Session returns the log's session name.
func (l *Log) Session() string {
	return l.session
}

// Append records one exchange. A missing ID or timestamp is filled in.
func (l *Log) Append(ex Exchange) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.New("exchange log is closed")
	}

	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}

	if ex.AskedAt.IsZero() {
		ex.AskedAt = time.Now().UTC()
	}

	ex.Session = l.session

	line, err := json.Marshal(&ex)
	if err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}

	line = append(line, '\n')
	if _, err := l.bw.Write(line); err != nil {
		return fmt.Errorf("write exchange: %w", err)
	}

	// Flush per record so a crash loses nothing already answered.
	if err := l.bw.Flush(); err != nil {
		return fmt.Errorf("flush exchange: %w", err)
	}

	return nil
}

// Close flushes and closes the log.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true

	now := time.Now().UTC()

	var errs []error
	if err := l.writeMeta(&Meta{
		Session:   l.session,
		StartedAt: l.startedAt,
		ClosedAt:  &now,
	}); err != nil {
		errs = append(errs, err)
	}

	if l.bw != nil {
		if err := l.bw.Flush(); err != nil {
			errs = append(errs, err)
		}
	}

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func validateSession(session string) error {
	if session == "" {
		return errors.New("session name is required")
	}

	if session != filepath.Base(session) || strings.Contains(session, "..") || strings.ContainsAny(session, `/\`) {
		return errors.New("invalid session name")
	}

	return nil
}
