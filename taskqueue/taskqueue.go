// Package taskqueue implements the Hatchling task queue (spec.md §4.11): a
// priority max-heap of pending tasks executed either by a fixed pool of
// worker goroutines or, with a zero-size pool, by whatever goroutine calls
// WaitForAll - the Go rendition of hxtask_queue's HX_USE_THREADS=0 mode.
package taskqueue

import (
	"sync"

	"github.com/joeycumines/hatchling/container"
	"github.com/joeycumines/hatchling/hlog"
	"github.com/joeycumines/hatchling/memory"
)

// Task is a unit of work, the Go rendition of hxtask. Execute is the last
// time the queue touches the task - an implementation is free to re-enqueue
// or discard itself from within Execute.
type Task interface {
	Execute(q *Queue)
	// Label names the task for diagnostics, matching hxtask::get_label.
	Label() string
}

// TaskFunc adapts a plain function to Task, for callers with no state of
// their own to attach a Label to.
type TaskFunc func(q *Queue)

func (f TaskFunc) Execute(q *Queue) { f(q) }
func (f TaskFunc) Label() string    { return "task" }

type runLevel int32

const (
	runLevelRunning runLevel = iota
	runLevelStopped
)

// taskRecord pairs a task with its scheduling priority and a monotonic
// sequence number. spec.md §9 leaves same-priority dispatch order
// unspecified beyond "some worker, eventually"; this package resolves that
// Open Question by breaking ties on enqueue order (FIFO within a priority
// level), recorded via seq.
type taskRecord struct {
	task     Task
	priority int
	seq      uint64
}

// lessRecord is the max-heap ordering: higher priority first, and among
// equal priorities the earlier-enqueued record compares as "greater" so it
// surfaces to the front of the heap first.
func lessRecord(a, b taskRecord) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq > b.seq
}

// Queue is the Go rendition of hxtask_queue.
type Queue struct {
	mu             sync.Mutex
	newTaskCond    *sync.Cond
	completionCond *sync.Cond

	tasks          *container.Array[taskRecord]
	nextSeq        uint64
	executingCount int
	runLevel       runLevel

	poolSize int
	wg       sync.WaitGroup
}

// New creates a queue whose task storage is reserved up front for
// queueSize entries (spec.md §4.11: the backing array never reallocates,
// so exceeding queueSize is a release assertion failure, mirroring
// container.Array's own no-reallocation rule) and, if poolSize > 0, starts
// that many worker goroutines immediately. A poolSize of 0 is the
// single-threaded mode: tasks only run when a caller invokes WaitForAll.
//
// m and id route the task array's storage bookkeeping through a memory
// manager the way every other Hatchling container does; pass a nil m to
// skip that bookkeeping (as the console command table does for its own
// storage).
func New(m *memory.Manager, id memory.ID, queueSize, poolSize int) *Queue {
	q := &Queue{
		tasks:    container.NewArray[taskRecord](m, id),
		poolSize: poolSize,
		runLevel: runLevelRunning,
	}
	q.tasks.Reserve(queueSize)
	q.newTaskCond = sync.NewCond(&q.mu)
	q.completionCond = sync.NewCond(&q.mu)

	for i := 0; i < poolSize; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.workerLoop()
		}()
	}
	return q
}

// Enqueue pushes task onto the heap with the given priority (higher values
// run sooner). Thread-safe, and callable from a running task's Execute.
// Enqueueing after Shutdown is a release assertion failure, mirroring
// hxtask_queue::enqueue's "stopped_queue" assertion.
func (q *Queue) Enqueue(task Task, priority int) {
	q.mu.Lock()
	assertRelease(q.runLevel == runLevelRunning, "task queue: enqueue on a stopped queue")
	rec := taskRecord{task: task, priority: priority, seq: q.nextSeq}
	q.nextSeq++
	q.tasks.PushBack(rec)
	q.tasks.PushHeap(lessRecord)
	q.mu.Unlock()

	if q.poolSize > 0 {
		q.newTaskCond.Signal()
	}
}

// popFront removes and returns the highest-priority task, if any. Must be
// called with q.mu held.
func (q *Queue) popFront() (taskRecord, bool) {
	if q.tasks.Empty() {
		return taskRecord{}, false
	}
	rec := *q.tasks.Front()
	q.tasks.PopHeap(lessRecord)
	q.tasks.PopBack()
	return rec, true
}

// WaitForAll drains the queue on the calling goroutine. In pool mode, the
// caller contributes work alongside the pool and returns once every
// enqueued task (including any re-enqueued by a task's own Execute) has
// completed; the pool keeps running afterward. In single-threaded mode it
// is the only way queued tasks ever run. Do not call from within a task's
// own Execute.
func (q *Queue) WaitForAll() {
	if q.poolSize == 0 {
		q.runSingleThreaded()
		return
	}

	q.mu.Lock()
	for {
		rec, ok := q.popFront()
		if !ok {
			break
		}
		q.executingCount++
		q.mu.Unlock()

		execute(rec.task, q)

		q.mu.Lock()
		q.executingCount--
		if q.executingCount == 0 && q.tasks.Empty() {
			q.completionCond.Broadcast()
		}
	}

	for !(q.tasks.Empty() && q.executingCount == 0) {
		q.completionCond.Wait()
	}
	q.mu.Unlock()
}

func (q *Queue) runSingleThreaded() {
	for {
		q.mu.Lock()
		rec, ok := q.popFront()
		q.mu.Unlock()
		if !ok {
			return
		}
		execute(rec.task, q)
	}
}

// workerLoop is the pool worker body, the Go rendition of
// thread_task_loop_ in thread_mode_pool_.
func (q *Queue) workerLoop() {
	for {
		q.mu.Lock()
		for q.tasks.Empty() && q.runLevel == runLevelRunning {
			q.newTaskCond.Wait()
		}
		rec, ok := q.popFront()
		if !ok {
			// Nothing queued: either stopping, or a spurious wake with work
			// already taken by another worker.
			if q.runLevel == runLevelStopped {
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			continue
		}
		q.executingCount++
		q.mu.Unlock()

		execute(rec.task, q)

		q.mu.Lock()
		q.executingCount--
		if q.executingCount == 0 && q.tasks.Empty() {
			q.completionCond.Broadcast()
		}
		q.mu.Unlock()
	}
}

// execute runs task, recovering a panic so one bad task cannot take down a
// worker goroutine or the caller of WaitForAll - the Go analogue of the
// original's hxprofile_scope wrapping around task->execute(), generalized
// since Go has no equivalent of a C++ exception unwinding past this call.
func execute(task Task, q *Queue) {
	defer func() {
		if r := recover(); r != nil {
			hlog.Warning().Str("task", task.Label()).Msg("task panicked")
		}
	}()
	task.Execute(q)
}

// Shutdown transitions the queue to the stopped run level, waking every
// worker so it can observe the flag and exit, then waits for the pool to
// join. Safe to call once; matches hxtask_queue's destructor, which itself
// calls wait_for_all before stopping a single-threaded queue.
func (q *Queue) Shutdown() {
	if q.poolSize == 0 {
		q.runSingleThreaded()
		q.mu.Lock()
		q.runLevel = runLevelStopped
		q.mu.Unlock()
		return
	}

	q.mu.Lock()
	for !(q.tasks.Empty() && q.executingCount == 0) {
		q.completionCond.Wait()
	}
	q.runLevel = runLevelStopped
	q.mu.Unlock()
	q.newTaskCond.Broadcast()

	q.wg.Wait()
}

// Len reports the number of tasks currently queued (not counting any being
// executed), primarily useful for tests and diagnostics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Len()
}
