package notifelect

import "golang.org/x/sync/errgroup"

// TaskManager is a trivial bag of background goroutines so that scope exit
// can await all of them and surface the first error. It
// has no prioritization or cancellation tree of its own — cancellation is
// broadcast by the Electoral engine's stop signal and by teardown of the
// owning connection.
type TaskManager struct {
	group errgroup.Group
}

// Go registers fn to run in a new goroutine, tracked for Wait.
func (t *TaskManager) Go(fn func() error) {
	t.group.Go(fn)
}

// Wait blocks until every registered task has returned, then returns the
// first non-nil error any of them produced (if any).
func (t *TaskManager) Wait() error {
	return t.group.Wait()
}
