package graph

import (
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgtypes"
)

type passMarker struct{}

func (passMarker) marker() {}

// PassHandle identifies a pass within a single Compiler's builder list.
// Unlike a device resource, passes are never individually released
// once compiled (the whole graph is torn down together), so a plain
// monotonic index packed as generation 1 is enough here instead of a
// full slot map.
type PassHandle = handle.Handle[passMarker]

// LoadOp is an attachment's behaviour at the start of a pass.
type LoadOp uint8

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
	LoadOpDontCare
)

// StoreOp is an attachment's behaviour at the end of a pass.
type StoreOp uint8

const (
	StoreOpStore StoreOp = iota
	StoreOpDontCare
)

// ClearValue is the value an attachment is cleared to when its LoadOp
// is LoadOpClear.
type ClearValue struct {
	R, G, B, A float32
	Depth      float32
	Stencil    uint32
}

type imageUsage struct {
	ref         ImageRef
	usage       rgtypes.Usage
	access      rgtypes.AccessType
	firstStage  rgtypes.PipelineStage
	lastStage   rgtypes.PipelineStage
	load        LoadOp
	store       StoreOp
	clear       ClearValue
}

type bufferUsage struct {
	ref        BufferRef
	usage      rgtypes.Usage
	access     rgtypes.AccessType
	firstStage rgtypes.PipelineStage
	lastStage  rgtypes.PipelineStage
}

type swapchainUsage struct {
	surface handle.RenderSurfaceHandle
	usage   rgtypes.Usage
	access  rgtypes.AccessType
	load    LoadOp
	store   StoreOp
	clear   ClearValue
}

// inferStage resolves the StageInfer sentinel to a concrete stage from
// a usage, per spec section 4.6's inference table.
func inferStage(usage rgtypes.Usage) rgtypes.PipelineStage {
	switch usage {
	case rgtypes.UsageColorAttachment:
		return rgtypes.StageColorAttachmentOutput
	case rgtypes.UsageDepthAttachment:
		return rgtypes.StageEarlyFragmentTests | rgtypes.StageLateFragmentTests
	case rgtypes.UsageSampled:
		return rgtypes.StageFragment
	case rgtypes.UsageStorage, rgtypes.UsageStorageReadWrite:
		return rgtypes.StageCompute
	case rgtypes.UsageTransferSource, rgtypes.UsageTransferDestination:
		return rgtypes.StageTransfer
	case rgtypes.UsagePresent:
		return rgtypes.StageBottomOfPipe
	default:
		return rgtypes.StageTopOfPipe
	}
}

func resolveStage(stage rgtypes.PipelineStage, usage rgtypes.Usage) rgtypes.PipelineStage {
	if stage == rgtypes.StageInfer {
		return inferStage(usage)
	}
	return stage
}

// PassBuilder is the fluent per-pass recorder spec section 4.6
// describes. Every Add*/declaration method returns the builder itself
// so calls chain; OnExecute registers the closure the executor invokes
// once the pass's barriers have been issued.
type PassBuilder struct {
	lib   *ResourceLibrary
	name  string
	class rgtypes.QueueClass
	index int
	self  PassHandle

	images     []imageUsage
	buffers    []bufferUsage
	swapchains []swapchainUsage
	dependsOn  []PassHandle

	shouldExecute func() bool
	execute       func(CommandRecorder)
}

// CommandRecorder is the minimal surface the executor hands a pass's
// execute closure: the recorded command list plus nothing else, since
// the graph does not expose raw hal types to pass authors beyond the
// command list they record into.
type CommandRecorder interface {
	ExecutePass(fn func())
}

func newPassBuilder(lib *ResourceLibrary, name string, class rgtypes.QueueClass, index int) *PassBuilder {
	return &PassBuilder{
		lib:   lib,
		name:  name,
		class: class,
		index: index,
		self:  handle.NewHandle[passMarker](uint32(index), 1),
	}
}

// Handle returns the pass's handle, valid once the pass has been added
// to a Compiler.
func (p *PassBuilder) Handle() PassHandle { return p.self }

// Name returns the pass's debug name.
func (p *PassBuilder) Name() string { return p.name }

// ColorAttachment declares handle as a color attachment the pass
// writes (or reads-and-writes, for e.g. blending).
func (p *PassBuilder) ColorAttachment(ref ImageRef, access rgtypes.AccessType, load LoadOp, store StoreOp, clear ClearValue) *PassBuilder {
	p.lib.addImageUsage(p.name, ref, rgtypes.UsageColorAttachment)
	p.images = append(p.images, imageUsage{
		ref: ref, usage: rgtypes.UsageColorAttachment, access: access,
		firstStage: rgtypes.StageInfer, lastStage: rgtypes.StageInfer,
		load: load, store: store, clear: clear,
	})
	return p
}

// DepthAttachment declares handle as a depth/stencil attachment.
func (p *PassBuilder) DepthAttachment(ref ImageRef, access rgtypes.AccessType, load LoadOp, store StoreOp, clear ClearValue) *PassBuilder {
	p.lib.addImageUsage(p.name, ref, rgtypes.UsageDepthAttachment)
	p.images = append(p.images, imageUsage{
		ref: ref, usage: rgtypes.UsageDepthAttachment, access: access,
		firstStage: rgtypes.StageInfer, lastStage: rgtypes.StageInfer,
		load: load, store: store, clear: clear,
	})
	return p
}

// SampledImage declares handle as a shader-sampled image read.
func (p *PassBuilder) SampledImage(ref ImageRef, firstStage, lastStage rgtypes.PipelineStage) *PassBuilder {
	p.lib.addImageUsage(p.name, ref, rgtypes.UsageSampled)
	p.images = append(p.images, imageUsage{ref: ref, usage: rgtypes.UsageSampled, access: rgtypes.AccessRead, firstStage: firstStage, lastStage: lastStage})
	return p
}

// StorageImage declares handle as a read-only storage image.
func (p *PassBuilder) StorageImage(ref ImageRef, firstStage, lastStage rgtypes.PipelineStage) *PassBuilder {
	p.lib.addImageUsage(p.name, ref, rgtypes.UsageStorage)
	p.images = append(p.images, imageUsage{ref: ref, usage: rgtypes.UsageStorage, access: rgtypes.AccessRead, firstStage: firstStage, lastStage: lastStage})
	return p
}

// StorageImageReadWrite declares handle as a read-write storage image.
func (p *PassBuilder) StorageImageReadWrite(ref ImageRef, firstStage, lastStage rgtypes.PipelineStage) *PassBuilder {
	p.lib.addImageUsage(p.name, ref, rgtypes.UsageStorageReadWrite)
	p.images = append(p.images, imageUsage{ref: ref, usage: rgtypes.UsageStorageReadWrite, access: rgtypes.AccessReadWrite, firstStage: firstStage, lastStage: lastStage})
	return p
}

// TransferSourceImage declares handle as a copy source.
func (p *PassBuilder) TransferSourceImage(ref ImageRef) *PassBuilder {
	p.lib.addImageUsage(p.name, ref, rgtypes.UsageTransferSource)
	p.images = append(p.images, imageUsage{ref: ref, usage: rgtypes.UsageTransferSource, access: rgtypes.AccessRead, firstStage: rgtypes.StageInfer, lastStage: rgtypes.StageInfer})
	return p
}

// TransferDestinationImage declares handle as a copy destination.
func (p *PassBuilder) TransferDestinationImage(ref ImageRef) *PassBuilder {
	p.lib.addImageUsage(p.name, ref, rgtypes.UsageTransferDestination)
	p.images = append(p.images, imageUsage{ref: ref, usage: rgtypes.UsageTransferDestination, access: rgtypes.AccessWrite, firstStage: rgtypes.StageInfer, lastStage: rgtypes.StageInfer})
	return p
}

// SwapchainAttachment declares the swapchain's current back-buffer as
// a color attachment this pass renders into, the external-resource
// path spec section 4.6 and 4.8 both call out specially since the
// image handle it resolves to is only known at acquire time.
func (p *PassBuilder) SwapchainAttachment(surface handle.RenderSurfaceHandle, access rgtypes.AccessType, load LoadOp, store StoreOp, clear ClearValue) *PassBuilder {
	p.swapchains = append(p.swapchains, swapchainUsage{surface: surface, usage: rgtypes.UsageColorAttachment, access: access, load: load, store: store, clear: clear})
	return p
}

// ConstantBuffer declares a uniform/constant buffer read.
func (p *PassBuilder) ConstantBuffer(ref BufferRef, firstStage, lastStage rgtypes.PipelineStage) *PassBuilder {
	p.lib.addBufferUsage(p.name, ref, rgtypes.UsageConstantBuffer)
	p.buffers = append(p.buffers, bufferUsage{ref: ref, usage: rgtypes.UsageConstantBuffer, access: rgtypes.AccessRead, firstStage: firstStage, lastStage: lastStage})
	return p
}

// StructuredBuffer declares a read-only structured/storage buffer.
func (p *PassBuilder) StructuredBuffer(ref BufferRef, firstStage, lastStage rgtypes.PipelineStage) *PassBuilder {
	p.lib.addBufferUsage(p.name, ref, rgtypes.UsageStructuredBuffer)
	p.buffers = append(p.buffers, bufferUsage{ref: ref, usage: rgtypes.UsageStructuredBuffer, access: rgtypes.AccessRead, firstStage: firstStage, lastStage: lastStage})
	return p
}

// StructuredBufferReadWrite declares a read-write structured buffer.
func (p *PassBuilder) StructuredBufferReadWrite(ref BufferRef, firstStage, lastStage rgtypes.PipelineStage) *PassBuilder {
	p.lib.addBufferUsage(p.name, ref, rgtypes.UsageStructuredBuffer)
	p.buffers = append(p.buffers, bufferUsage{ref: ref, usage: rgtypes.UsageStructuredBuffer, access: rgtypes.AccessReadWrite, firstStage: firstStage, lastStage: lastStage})
	return p
}

// VertexBuffer declares a vertex buffer read.
func (p *PassBuilder) VertexBuffer(ref BufferRef) *PassBuilder {
	p.lib.addBufferUsage(p.name, ref, rgtypes.UsageVertexBuffer)
	p.buffers = append(p.buffers, bufferUsage{ref: ref, usage: rgtypes.UsageVertexBuffer, access: rgtypes.AccessRead, firstStage: rgtypes.StageVertexInput, lastStage: rgtypes.StageVertexInput})
	return p
}

// IndexBuffer declares an index buffer read.
func (p *PassBuilder) IndexBuffer(ref BufferRef) *PassBuilder {
	p.lib.addBufferUsage(p.name, ref, rgtypes.UsageIndexBuffer)
	p.buffers = append(p.buffers, bufferUsage{ref: ref, usage: rgtypes.UsageIndexBuffer, access: rgtypes.AccessRead, firstStage: rgtypes.StageVertexInput, lastStage: rgtypes.StageVertexInput})
	return p
}

// IndirectBuffer declares an indirect-argument buffer read.
func (p *PassBuilder) IndirectBuffer(ref BufferRef) *PassBuilder {
	p.lib.addBufferUsage(p.name, ref, rgtypes.UsageIndirectBuffer)
	p.buffers = append(p.buffers, bufferUsage{ref: ref, usage: rgtypes.UsageIndirectBuffer, access: rgtypes.AccessRead, firstStage: rgtypes.StageDrawIndirect, lastStage: rgtypes.StageDrawIndirect})
	return p
}

// TransferSourceBuffer declares a buffer copy source.
func (p *PassBuilder) TransferSourceBuffer(ref BufferRef) *PassBuilder {
	p.lib.addBufferUsage(p.name, ref, rgtypes.UsageTransferSource)
	p.buffers = append(p.buffers, bufferUsage{ref: ref, usage: rgtypes.UsageTransferSource, access: rgtypes.AccessRead, firstStage: rgtypes.StageTransfer, lastStage: rgtypes.StageTransfer})
	return p
}

// TransferDestinationBuffer declares a buffer copy destination.
func (p *PassBuilder) TransferDestinationBuffer(ref BufferRef) *PassBuilder {
	p.lib.addBufferUsage(p.name, ref, rgtypes.UsageTransferDestination)
	p.buffers = append(p.buffers, bufferUsage{ref: ref, usage: rgtypes.UsageTransferDestination, access: rgtypes.AccessWrite, firstStage: rgtypes.StageTransfer, lastStage: rgtypes.StageTransfer})
	return p
}

// DependsOn forces dep to be ordered before this pass even when no
// data dependency links them.
func (p *PassBuilder) DependsOn(dep PassHandle) *PassBuilder {
	p.dependsOn = append(p.dependsOn, dep)
	return p
}

// ShouldExecute registers the per-frame predicate controlling whether
// this pass is in the active set. A nil predicate (the default) means
// always active.
func (p *PassBuilder) ShouldExecute(fn func() bool) *PassBuilder {
	p.shouldExecute = fn
	return p
}

// OnExecute registers the closure invoked once the pass's barriers
// have been issued.
func (p *PassBuilder) OnExecute(fn func(CommandRecorder)) *PassBuilder {
	p.execute = fn
	return p
}

func (p *PassBuilder) resolveStages() {
	for i := range p.images {
		p.images[i].firstStage = resolveStage(p.images[i].firstStage, p.images[i].usage)
		p.images[i].lastStage = resolveStage(p.images[i].lastStage, p.images[i].usage)
	}
}

func (p *PassBuilder) isActive() bool {
	return p.shouldExecute == nil || p.shouldExecute()
}
