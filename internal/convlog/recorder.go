package convlog

import (
	"errors"
	"sync"
)

// Recorder routes exchanges to per-session logs under one history
// directory. The bridge server accepts a session override per request, so
// its exchanges can belong to any session; a Recorder opens each session's
// log lazily on first use and keeps it open for the server's lifetime.
type Recorder struct {
	mu   sync.Mutex
	dir  string
	logs map[string]*Log
}

// NewRecorder returns a Recorder writing under dir. An empty dir uses the
// default history directory.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir, logs: make(map[string]*Log)}
}

// Append records one exchange in the log named by its Session field.
func (r *Recorder) Append(ex Exchange) error {
	l, err := r.logFor(ex.Session)
	if err != nil {
		return err
	}
	return l.Append(ex)
}

func (r *Recorder) logFor(session string) (*Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.logs[session]; ok {
		return l, nil
	}

	l, err := Open(Options{Session: session, Dir: r.dir})
	if err != nil {
		return nil, err
	}
	r.logs[session] = l

	return l, nil
}

// Close closes every log opened so far.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, l := range r.logs {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.logs = make(map[string]*Log)

	return errors.Join(errs...)
}
