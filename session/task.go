package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/orbworks/orbit/logger"
	"github.com/orbworks/orbit/protocol"
)

// taskFunc performs one pass of a managed loop. It returns true to keep
// the loop running, or false to stop the goroutine.
type taskFunc func() bool

// taskManager owns the session's goroutines: it starts them, signals them
// to stop through a shared context, and waits for them to terminate.
type taskManager struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
}

func newTaskManager(ctx context.Context, l logger.Logger) *taskManager {
	mgr := &taskManager{logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// start runs fn in a loop on a new goroutine until fn returns false or
// the manager is stopped.
func (mgr *taskManager) start(name string, fn taskFunc) error {
	if err := mgr.checkStopped(name); err != nil {
		return err
	}

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer mgr.finishTask(name)

		for {
			select {
			case <-mgr.ctx.Done():
				return
			default:
				if !fn() {
					return
				}
			}
		}
	}()

	return nil
}

// startConsumer runs fn on a new goroutine for each notification taken
// from inputChan until the channel closes or the manager is stopped.
// Each fn invocation is panic-isolated so one bad handler call cannot
// kill the dispatch loop.
func (mgr *taskManager) startConsumer(name string, fn func(*protocol.Notification), inputChan <-chan *protocol.Notification) error {
	if err := mgr.checkStopped(name); err != nil {
		return err
	}

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer mgr.finishTask(name)

		for {
			select {
			case <-mgr.ctx.Done():
				return
			case n, ok := <-inputChan:
				if !ok {
					mgr.logger.Debug("session: input channel closed", "name", name)

					return
				}
				if n == nil {
					continue
				}

				mgr.callWithRecover(name, func() { fn(n) })
			}
		}
	}()

	return nil
}

func (mgr *taskManager) checkStopped(name string) error {
	select {
	case <-mgr.ctx.Done():
		return fmt.Errorf("session: cannot start %s task, manager already stopped", name)
	default:
		return nil
	}
}

func (mgr *taskManager) finishTask(name string) {
	if r := recover(); r != nil {
		mgr.logger.Error("session: panic in task", "name", name, "panic", r)
	}

	mgr.count.Add(-1)
	mgr.wg.Done()
	mgr.logger.Debug(fmt.Sprintf("session: %s task terminated", name), "task_count", mgr.taskCount())
}

// callWithRecover invokes fn with panic protection.
func (mgr *taskManager) callWithRecover(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("session: panic in task", "name", name, "panic", r)
		}
	}()

	fn()
}

// stop signals all running tasks to terminate.
func (mgr *taskManager) stop() {
	mgr.cancel()
}

// wait blocks until all tasks have terminated.
func (mgr *taskManager) wait() {
	mgr.wg.Wait()
}

func (mgr *taskManager) taskCount() int {
	return int(mgr.count.Load())
}
