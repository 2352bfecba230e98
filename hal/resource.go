// Package hal defines the hardware-abstraction-layer boundary between
// the render-graph core and a concrete GPU backend. Nothing under
// device, workqueue or graph talks to a real Vulkan loader directly;
// everything goes through these interfaces instead.
package hal

import "github.com/gogpu/rendergraph/rgtypes"

// Resource is the common destructible handle every backend object
// implements.
type Resource interface {
	Destroy()
}

// Buffer is an opaque backend buffer object.
type Buffer interface {
	Resource
	Size() uint64
}

// Image is an opaque backend image object.
type Image interface {
	Resource
	Width() uint32
	Height() uint32
	Format() rgtypes.Format
}

// Sampler is an opaque backend sampler object.
type Sampler interface {
	Resource
}

// Fence is a backend timeline fence: a monotonically increasing
// counter a queue signals and a device can wait on.
type Fence interface {
	Resource
	Value() uint64
}

// Semaphore is a backend binary semaphore used to order queue
// submissions against each other (acquire -> render -> present).
type Semaphore interface {
	Resource
}

// CommandList is a single-use-per-frame recorded command stream.
type CommandList interface {
	Begin() error
	End() error
	Reset()
	PipelineBarrier(imageBarriers []ImageBarrier, bufferBarriers []BufferBarrier, srcStage, dstStage rgtypes.PipelineStage)
	ExecutePass(fn func())
}

// Surface is a presentable render surface: a backend swapchain plus
// its per-image wrappers.
type Surface interface {
	Resource
	Images() []Image
	AcquireNextImage(signal Semaphore) (imageIndex uint32, suboptimal bool, err error)
	Present(queue Queue, imageIndex uint32, waits []Semaphore) error
}

// Queue is a backend work queue capable of submitting command lists
// and presenting to a surface.
type Queue interface {
	Class() rgtypes.QueueClass
	Submit(list CommandList, waits, signals []Semaphore, fence Fence) error
}

// Device creates and destroys every backend resource kind the graph
// and device packages need.
type Device interface {
	CreateBuffer(desc *rgtypes.BufferDescriptor) (Buffer, error)
	DestroyBuffer(Buffer)
	MapBuffer(b Buffer) ([]byte, error)
	UnmapBuffer(b Buffer)

	CreateImage(desc *rgtypes.ImageDescriptor) (Image, error)
	DestroyImage(Image)

	CreateSampler() (Sampler, error)
	DestroySampler(Sampler)

	CreateFence() (Fence, error)
	DestroyFence(Fence)
	WaitFence(f Fence, value uint64) (bool, error)

	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(Semaphore)

	CreateCommandList(class rgtypes.QueueClass) (CommandList, error)

	CreateSurface(desc *rgtypes.SurfaceDescriptor) (Surface, error)

	// Queue returns the device's dedicated queue for class, or nil if
	// the device exposes no queue of that class. Callers (the
	// workqueue package) are responsible for falling back to the
	// graphics queue when Queue returns nil for a non-graphics class.
	Queue(class rgtypes.QueueClass) Queue

	Destroy()
}

// Backend is the entry point a concrete implementation exposes to
// construct a Device. Only one backend is selected per process; this
// module ships the software backend as the only concrete
// implementation, since device creation against a real GPU API is an
// external collaborator's responsibility.
type Backend interface {
	Name() string
	CreateDevice() (Device, error)
}
