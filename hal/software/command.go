package software

import (
	"fmt"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/rgtypes"
)

// BarrierRecord captures one PipelineBarrier call for test inspection.
type BarrierRecord struct {
	ImageBarriers  []hal.ImageBarrier
	BufferBarriers []hal.BufferBarrier
	SrcStage       rgtypes.PipelineStage
	DstStage       rgtypes.PipelineStage
}

type state int

const (
	stateInitial state = iota
	stateRecording
	stateEnded
)

// CommandList is a software command list: it does not talk to any
// real queue, it just records barrier calls and runs each pass's
// closure immediately and synchronously, in the order they were
// recorded.
type CommandList struct {
	class    rgtypes.QueueClass
	st       state
	Barriers []BarrierRecord
}

func (c *CommandList) Begin() error {
	if c.st != stateInitial {
		return fmt.Errorf("software: command list already begun")
	}
	c.st = stateRecording
	return nil
}

func (c *CommandList) End() error {
	if c.st != stateRecording {
		return fmt.Errorf("software: command list not recording")
	}
	c.st = stateEnded
	return nil
}

func (c *CommandList) Reset() {
	c.st = stateInitial
	c.Barriers = nil
}

func (c *CommandList) PipelineBarrier(imageBarriers []hal.ImageBarrier, bufferBarriers []hal.BufferBarrier, srcStage, dstStage rgtypes.PipelineStage) {
	if len(imageBarriers) == 0 && len(bufferBarriers) == 0 {
		return
	}
	c.Barriers = append(c.Barriers, BarrierRecord{
		ImageBarriers:  imageBarriers,
		BufferBarriers: bufferBarriers,
		SrcStage:       srcStage,
		DstStage:       dstStage,
	})
}

func (c *CommandList) ExecutePass(fn func()) {
	if fn != nil {
		fn()
	}
}
