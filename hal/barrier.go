package hal

import "github.com/gogpu/rendergraph/rgtypes"

// ImageBarrier is the Vulkan-shaped image memory barrier the executor
// emits: explicit stage masks, access masks, layouts and queue
// families on both sides of the transition, not the simpler
// old-usage/new-usage pair a WebGPU-style HAL would use.
type ImageBarrier struct {
	Image Image

	SrcStage rgtypes.PipelineStage
	DstStage rgtypes.PipelineStage

	SrcAccess rgtypes.AccessMask
	DstAccess rgtypes.AccessMask

	OldLayout rgtypes.ImageLayout
	NewLayout rgtypes.ImageLayout

	SrcQueueFamily rgtypes.QueueClass
	DstQueueFamily rgtypes.QueueClass
}

// BufferBarrier is the Vulkan-shaped buffer memory barrier: buffers
// have no layout concept, only stage/access masks and an optional
// queue-family ownership transfer.
type BufferBarrier struct {
	Buffer Buffer

	SrcStage rgtypes.PipelineStage
	DstStage rgtypes.PipelineStage

	SrcAccess rgtypes.AccessMask
	DstAccess rgtypes.AccessMask

	SrcQueueFamily rgtypes.QueueClass
	DstQueueFamily rgtypes.QueueClass
}
