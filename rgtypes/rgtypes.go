// Package rgtypes holds the plain data types shared by the hal, device,
// workqueue and graph packages: formats, usage masks, access kinds,
// pipeline stages, image layouts and memory locations. It carries no
// behavior, mirroring how a types package should sit beneath everything
// else in the module.
package rgtypes

// Format enumerates the subset of image/buffer element formats the graph
// cares about. It does not attempt to be a complete Vulkan format table.
type Format uint32

const (
	FormatUndefined Format = iota
	FormatR8Unorm
	FormatRGBA8Unorm
	FormatRGBA8Srgb
	FormatBGRA8Unorm
	FormatRGBA16Float
	FormatRGBA32Float
	FormatD32Float
	FormatD24UnormS8Uint
	FormatR32Uint
)

// MemoryLocation describes where a resource's backing memory lives.
type MemoryLocation uint8

const (
	// MemoryLocationDevice is device-local memory, not host-visible.
	MemoryLocationDevice MemoryLocation = iota
	// MemoryLocationHostVisible is host-visible, typically host-cached,
	// upload-style memory.
	MemoryLocationHostVisible
	// MemoryLocationHostVisibleDevice is device-local memory that also
	// happens to be host-visible (rebar / resizable BAR style heaps).
	MemoryLocationHostVisibleDevice
)

// QueueClass identifies which queue family kind a piece of work targets.
type QueueClass uint8

const (
	QueueClassGraphics QueueClass = iota
	QueueClassTransfer
	QueueClassCompute
)

// QueueCapability is a bitmask of operations a physical queue family
// supports, used to pick a concrete queue for a requested QueueClass.
type QueueCapability uint32

const (
	QueueCapabilityGraphics QueueCapability = 1 << iota
	QueueCapabilityCompute
	QueueCapabilityTransfer
	QueueCapabilityPresent
)

// Usage describes how a single resource-view is used by a single pass.
// It is the vocabulary the pass builder and barrier planner share.
type Usage uint32

const (
	UsageNone Usage = 0
	UsageColorAttachment Usage = 1 << iota
	UsageDepthAttachment
	UsageSampled
	UsageStorage
	UsageStorageReadWrite
	UsageTransferSource
	UsageTransferDestination
	UsagePresent
	UsageConstantBuffer
	UsageStructuredBuffer
	UsageVertexBuffer
	UsageIndexBuffer
	UsageIndirectBuffer
)

// AccessType distinguishes how a pass touches a resource it uses, used
// together with Usage to disambiguate barrier stage/access masks (for
// example a color attachment usage with AccessRead is a blend-source
// read, not a write).
type AccessType uint8

const (
	AccessRead AccessType = iota
	AccessWrite
	AccessReadWrite
)

// PipelineStage is a coarse pipeline-stage bitmask, the Go-side analogue
// of VkPipelineStageFlags as far as this graph needs it.
type PipelineStage uint32

const (
	StageNone PipelineStage = 0
	StageTopOfPipe PipelineStage = 1 << iota
	StageTransfer
	StageFragment
	StageEarlyFragmentTests
	StageLateFragmentTests
	StageColorAttachmentOutput
	StageCompute
	StageVertexInput
	StageDrawIndirect
	StageBottomOfPipe
	// StageInfer is a sentinel asking the pass builder to derive the
	// stage from the declared Usage instead of an explicit value.
	StageInfer
)

// ImageLayout mirrors the subset of VkImageLayout values the barrier
// planner transitions between.
type ImageLayout uint32

const (
	ImageLayoutUndefined ImageLayout = iota
	ImageLayoutGeneral
	ImageLayoutColorAttachment
	ImageLayoutDepthStencilAttachment
	ImageLayoutShaderReadOnly
	ImageLayoutTransferSrc
	ImageLayoutTransferDst
	ImageLayoutPresentSrc
)

// AccessMask is a coarse analogue of VkAccessFlags.
type AccessMask uint32

const (
	AccessMaskNone AccessMask = 0
	AccessMaskColorAttachmentRead AccessMask = 1 << iota
	AccessMaskColorAttachmentWrite
	AccessMaskDepthStencilAttachmentRead
	AccessMaskDepthStencilAttachmentWrite
	AccessMaskShaderRead
	AccessMaskShaderWrite
	AccessMaskTransferRead
	AccessMaskTransferWrite
	AccessMaskUniformRead
	AccessMaskVertexAttributeRead
	AccessMaskIndexRead
	AccessMaskIndirectCommandRead
)

// BufferDescriptor describes a buffer to be created by a device.
type BufferDescriptor struct {
	Label    string
	Size     uint64
	Location MemoryLocation
	// PerFrame, when true, multiplies the physical allocation by the
	// device's configured frames-in-flight count; Size stays the
	// logical, single-frame size.
	PerFrame bool
	// Usage is the accumulated usage mask the resource library built up
	// from every pass's declared usage before graph compile. It is
	// informational for the software backend but a real backend would
	// derive its native usage bitset from it.
	Usage Usage
}

// ImageDescriptor describes an image to be created by a device.
type ImageDescriptor struct {
	Label       string
	Width       uint32
	Height      uint32
	DepthOrLayers uint32
	MipLevels   uint32
	Format      Format
	// Usage is the accumulated usage mask, see BufferDescriptor.Usage.
	Usage Usage
}

// SurfaceDescriptor describes a render surface (surface + swapchain) to
// be created by a device.
type SurfaceDescriptor struct {
	Label       string
	Width       uint32
	Height      uint32
	Format      Format
	ImageCount  uint32
}
