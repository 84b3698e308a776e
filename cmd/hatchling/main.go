// Command hatchling boots the settings singleton and memory manager,
// registers a handful of console commands, and runs a line-oriented REPL
// over stdin - the example wiring named in SPEC_FULL.md's module layout,
// the Go analogue of the original's hxTestMain.cpp / hxinit() sequence.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/joeycumines/hatchling/console"
	"github.com/joeycumines/hatchling/hlog"
	"github.com/joeycumines/hatchling/memory"
	"github.com/joeycumines/hatchling/settings"
	"github.com/joeycumines/hatchling/taskqueue"
	"github.com/joeycumines/hatchling/testharness"
)

func main() {
	settings.Init()
	mgr := memory.NewManager(memory.DefaultBudget)
	queue := taskqueue.New(mgr, memory.Permanent, 256, 4)

	registerCommands(mgr, queue)

	hlog.Console().Msg("hatchling console ready - type 'help' for a command list")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		console.ExecLine(scanner.Text())
	}

	queue.Shutdown()
	// Permanent allocations (including the queue's own task storage) are
	// never expected to free by design, so mgr.AssertNoLeaks would always
	// be fatal here; that check belongs to a scope known to balance, such
	// as testharness's per-case LeakCheck hook around the temporary stack.
	hlog.Console().Msg("shutting down")
}

func registerCommands(mgr *memory.Manager, queue *taskqueue.Queue) {
	console.Command("quit", func() bool { os.Exit(0); return true })

	console.Command("stats", func() bool {
		for _, id := range []memory.ID{memory.Heap, memory.Permanent, memory.TemporaryStack} {
			hlog.Console().
				Str("allocator", id.String()).
				Int("allocations", int(mgr.AllocationCount(id))).
				Int("bytes", int(mgr.BytesAllocated(id))).
				Int("high_water", int(mgr.HighWater(id))).
				Msg("stats")
		}
		return true
	})

	console.Command("queued", func() bool {
		hlog.Console().Int("pending", queue.Len()).Msg("queued")
		return true
	})

	console.Command("enqueue_log", func(priority int, message string) bool {
		queue.Enqueue(taskqueue.TaskFunc(func(*taskqueue.Queue) {
			fmt.Println(message)
		}), priority)
		return true
	})

	console.Command("wait_for_all", func() bool {
		queue.WaitForAll()
		return true
	})

	console.Command("selftest", func() bool {
		result := testharness.RunAll("")
		return result.Success()
	})
}
