package software

import (
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/rgtypes"
)

// Queue is a software queue. Submission is synchronous: by the time
// Submit returns, the command list's passes have already executed
// (CommandList.ExecutePass runs its closure immediately), so the only
// thing left to do here is signal the fence, if one was given.
type Queue struct {
	class    rgtypes.QueueClass
	submits  uint64
}

func (q *Queue) Class() rgtypes.QueueClass { return q.class }

func (q *Queue) Submit(list hal.CommandList, waits, signals []hal.Semaphore, fence hal.Fence) error {
	q.submits++
	if f, ok := fence.(*Fence); ok {
		f.signal(q.submits)
	}
	return nil
}
