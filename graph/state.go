package graph

import (
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgtypes"
)

// imageState is the last-known barrier-relevant state of an image, as
// of the end of the most recently executed pass that touched it. A
// handle never seen before defaults to the undefined state spec
// section 4.8 describes: top-of-pipe stage, no access, undefined
// layout.
type imageState struct {
	stage  rgtypes.PipelineStage
	access rgtypes.AccessMask
	layout rgtypes.ImageLayout
}

var undefinedImageState = imageState{
	stage:  rgtypes.StageTopOfPipe,
	access: rgtypes.AccessMaskNone,
	layout: rgtypes.ImageLayoutUndefined,
}

// bufferState is imageState's buffer equivalent; buffers have no
// layout.
type bufferState struct {
	stage  rgtypes.PipelineStage
	access rgtypes.AccessMask
}

var undefinedBufferState = bufferState{
	stage:  rgtypes.StageTopOfPipe,
	access: rgtypes.AccessMaskNone,
}

// stateTable tracks every image's and buffer's last-known state across
// the executor's lifetime, keyed by the resolved device handle. It is
// never reset wholesale; an image that drops out of the active set for
// a frame simply keeps the state it had the last time it was used,
// which is what lets a pass re-entering the active set skip an
// unnecessary transition when nothing has in fact changed underneath
// it.
type stateTable struct {
	images     map[handle.ImageHandle]imageState
	buffers    map[handle.BufferHandle]bufferState
	swapchains map[handle.RenderSurfaceHandle]imageState
}

func newStateTable() *stateTable {
	return &stateTable{
		images:     make(map[handle.ImageHandle]imageState),
		buffers:    make(map[handle.BufferHandle]bufferState),
		swapchains: make(map[handle.RenderSurfaceHandle]imageState),
	}
}

func (t *stateTable) image(h handle.ImageHandle) imageState {
	if s, ok := t.images[h]; ok {
		return s
	}
	return undefinedImageState
}

func (t *stateTable) setImage(h handle.ImageHandle, s imageState) {
	t.images[h] = s
}

func (t *stateTable) buffer(h handle.BufferHandle) bufferState {
	if s, ok := t.buffers[h]; ok {
		return s
	}
	return undefinedBufferState
}

func (t *stateTable) setBuffer(h handle.BufferHandle, s bufferState) {
	t.buffers[h] = s
}

func (t *stateTable) swapchain(s handle.RenderSurfaceHandle) imageState {
	if v, ok := t.swapchains[s]; ok {
		return v
	}
	return undefinedImageState
}

func (t *stateTable) setSwapchain(s handle.RenderSurfaceHandle, v imageState) {
	t.swapchains[s] = v
}
