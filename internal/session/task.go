package session

import (
	"context"
	"fmt"

	"github.com/zhengda-lu/imgtag/internal/engine"
)

type Kind string

const (
	KindRename   Kind = "rename"
	KindOrganize Kind = "organize"
	KindPurge    Kind = "purge"
)

// Request describes a bulk operation for Start. Prefix is only used by
// KindRename.
type Request struct {
	Kind   Kind
	Prefix string
}

// Result carries the summary of whichever operation ran.
type Result struct {
	Kind     Kind
	Rename   engine.RenameSummary
	Organize engine.OrganizeSummary
	Purge    engine.PurgeSummary
}

// Task is a bulk operation running in the background.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
	result Result
	err    error
}

// Done is closed once the operation has finished and its effects on the
// session are visible.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel asks the operation to stop after the record it is working on.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the operation finishes.
func (t *Task) Wait() (Result, error) {
	<-t.done
	return t.result, t.err
}

// Start runs req on its own goroutine. The session stays locked until the
// task finishes, so other commands fail with ErrBusy in the meantime.
func (s *Session) Start(ctx context.Context, req Request, progress engine.ProgressFunc) (*Task, error) {
	switch req.Kind {
	case KindRename, KindOrganize, KindPurge:
	default:
		return nil, fmt.Errorf("unknown operation %q", req.Kind)
	}

	if err := s.acquire(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	dir := s.dir
	s.mu.RUnlock()
	if dir == "" {
		s.release()
		return nil, ErrNoDirectory
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer s.release()
		defer cancel()

		t.result.Kind = req.Kind
		switch req.Kind {
		case KindRename:
			t.result.Rename, t.err = s.rename(ctx, req.Prefix, progress)
		case KindOrganize:
			t.result.Organize, t.err = s.organize(ctx, progress)
		case KindPurge:
			t.result.Purge, t.err = s.purge(ctx, progress)
		}
	}()
	return t, nil
}
