// Package device implements the GPU resource registry spec section 4.3
// describes: buffer/image/swapchain creation and destruction, host
// mapping, per-frame buffer offsets, and the start/end-of-frame
// bookkeeping that drives the deferred deletion queue. It owns the
// slot maps behind every device resource handle. Resource creation and
// destruction go through it; the workqueue package, given the backend
// device through HAL, calls the hal.Device directly for queues and
// command lists.
package device

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/deletion"
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgconfig"
	"github.com/gogpu/rendergraph/rgtypes"
)

type bufferRecord struct {
	buf    hal.Buffer
	desc   rgtypes.BufferDescriptor
	host   *hostMapping
	mapped bool
}

type imageRecord struct {
	img              hal.Image
	desc             rgtypes.ImageDescriptor
	isSwapchainImage bool
}

type surfaceRecord struct {
	surf         hal.Surface
	images       []handle.ImageHandle
	currentIndex uint32
	window       any
}

// Device is the resource registry sitting directly on top of a
// hal.Device: it owns every buffer, image and render surface this
// module creates, and drives their lifetime through the deletion
// queue instead of destroying anything synchronously on the client's
// Destroy call.
type Device struct {
	mu  sync.Mutex
	cfg rgconfig.Config
	hal hal.Device

	buffers   *handle.SlotMap[*bufferRecord, handle.BufferMarker]
	images    *handle.SlotMap[*imageRecord, handle.ImageMarker]
	surfaces  *handle.SlotMap[*surfaceRecord, handle.RenderSurfaceMarker]
	samplers  *handle.SlotMap[hal.Sampler, handle.SamplerMarker]
	fences    *handle.SlotMap[hal.Fence, handle.FenceMarker]
	semaphores *handle.SlotMap[hal.Semaphore, handle.SemaphoreMarker]

	deletions *deletion.Queue

	currentFrame uint64
}

// New constructs a Device against the given backend using cfg.
func New(backend hal.Backend, cfg rgconfig.Config) (*Device, error) {
	if cfg.FramesInFlight == 0 {
		cfg = rgconfig.New(rgconfig.WithFramesInFlight(rgconfig.DefaultFramesInFlight), rgconfig.WithValidation(cfg.ValidationEnabled))
	}
	backendDevice, err := backend.CreateDevice()
	if err != nil {
		return nil, fmt.Errorf("device: create backend device: %w", err)
	}
	return &Device{
		cfg:        cfg,
		hal:        backendDevice,
		buffers:    handle.NewSlotMap[*bufferRecord, handle.BufferMarker](),
		images:     handle.NewSlotMap[*imageRecord, handle.ImageMarker](),
		surfaces:   handle.NewSlotMap[*surfaceRecord, handle.RenderSurfaceMarker](),
		samplers:   handle.NewSlotMap[hal.Sampler, handle.SamplerMarker](),
		fences:     handle.NewSlotMap[hal.Fence, handle.FenceMarker](),
		semaphores: handle.NewSlotMap[hal.Semaphore, handle.SemaphoreMarker](),
		deletions:  deletion.New(cfg.FramesInFlight),
	}, nil
}

// Config returns the device's configuration.
func (d *Device) Config() rgconfig.Config { return d.cfg }

// HAL returns the backend device this registry sits on top of, for
// callers (the workqueue package) that need to talk to it directly
// rather than through one of Device's own wrapping methods.
func (d *Device) HAL() hal.Device { return d.hal }

// FramesInFlight returns the configured frames-in-flight window.
func (d *Device) FramesInFlight() uint64 { return d.cfg.FramesInFlight }

// CurrentFrame returns the index of the frame currently being recorded.
func (d *Device) CurrentFrame() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentFrame
}

// StartFrame begins a new frame. Per spec section 4.3 this and EndFrame
// are the pair that advance the frame index and flush the deletion
// queue; StartFrame itself does no flushing, so a resource released
// during the frame that is about to start is still safely deferred.
func (d *Device) StartFrame() {
	// Nothing to do beyond what EndFrame already performs; kept as a
	// distinct call per spec section 4.3 so callers have a symmetric
	// begin/end pair even though all the bookkeeping currently lives
	// in EndFrame.
}

// EndFrame advances the frame index and flushes every deletion queue
// entry whose retirement frame has now elapsed.
func (d *Device) EndFrame() {
	d.mu.Lock()
	d.currentFrame++
	frame := d.currentFrame
	d.mu.Unlock()

	d.deletions.FlushFrame(frame)
}

// CreateSampler creates a sampler. Samplers are opaque, backend-owned
// records per spec section 3; this module does not interpret their
// contents.
func (d *Device) CreateSampler() (handle.SamplerHandle, error) {
	s, err := d.hal.CreateSampler()
	if err != nil {
		return handle.Null[handle.SamplerMarker](), &CreateError{Label: "sampler", Cause: err}
	}
	return d.samplers.Insert(s), nil
}

// DestroySampler enqueues a sampler for deferred release.
func (d *Device) DestroySampler(h handle.SamplerHandle) {
	s, ok := d.samplers.Erase(h)
	if !ok {
		return
	}
	frame := d.CurrentFrame()
	d.deletions.Enqueue(frame, func() { d.hal.DestroySampler(s) })
}

// CreateSemaphore creates a binary semaphore.
func (d *Device) CreateSemaphore() (handle.SemaphoreHandle, error) {
	s, err := d.hal.CreateSemaphore()
	if err != nil {
		return handle.Null[handle.SemaphoreMarker](), err
	}
	return d.semaphores.Insert(s), nil
}

// HALSemaphore resolves a semaphore handle to its backend object.
func (d *Device) HALSemaphore(h handle.SemaphoreHandle) (hal.Semaphore, bool) {
	return d.semaphores.Get(h)
}

// DestroySemaphore enqueues a semaphore for deferred release.
func (d *Device) DestroySemaphore(h handle.SemaphoreHandle) {
	s, ok := d.semaphores.Erase(h)
	if !ok {
		return
	}
	frame := d.CurrentFrame()
	d.deletions.Enqueue(frame, func() { d.hal.DestroySemaphore(s) })
}

// CreateFence creates a timeline fence.
func (d *Device) CreateFence() (handle.FenceHandle, error) {
	f, err := d.hal.CreateFence()
	if err != nil {
		return handle.Null[handle.FenceMarker](), err
	}
	return d.fences.Insert(f), nil
}

// HALFence resolves a fence handle to its backend object.
func (d *Device) HALFence(h handle.FenceHandle) (hal.Fence, bool) {
	return d.fences.Get(h)
}

// DestroyFence enqueues a fence for deferred release.
func (d *Device) DestroyFence(h handle.FenceHandle) {
	f, ok := d.fences.Erase(h)
	if !ok {
		return
	}
	frame := d.CurrentFrame()
	d.deletions.Enqueue(frame, func() { d.hal.DestroyFence(f) })
}

// Queue returns the backend queue for class, falling back to the
// graphics queue if the backend exposes no dedicated queue of that
// class (spec section 4.4's dedicated-queue-with-fallback contract).
func (d *Device) Queue(class rgtypes.QueueClass) hal.Queue {
	if q := d.hal.Queue(class); q != nil {
		return q
	}
	return d.hal.Queue(rgtypes.QueueClassGraphics)
}

// CreateCommandList creates a command list for class's queue family.
func (d *Device) CreateCommandList(class rgtypes.QueueClass) (hal.CommandList, error) {
	return d.hal.CreateCommandList(class)
}

// Destroy flushes every pending deletion and destroys the underlying
// backend device. It does not wait on any fence: every queued release
// runs immediately, including ones whose frames-in-flight window has
// not elapsed.
func (d *Device) Destroy() {
	d.deletions.FlushAll()
	d.hal.Destroy()
}
