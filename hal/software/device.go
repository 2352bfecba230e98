package software

import (
	"fmt"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/rgtypes"
)

// Device implements hal.Device entirely in Go. Every resource it
// creates is backed by a real byte slice; destruction is a no-op,
// since the Go garbage collector reclaims the memory once the device
// package's registry drops its last reference (after the deletion
// queue's retirement delay has elapsed).
type Device struct {
	graphicsQueue *Queue
	transferQueue *Queue
	computeQueue  *Queue
}

// New constructs a software device with one queue per class. A real
// backend would discover dedicated transfer/compute queue families
// and fall back to the graphics queue when none exist; the software
// backend always has all three, so the fallback path in
// workqueue.Manager.Queue and device.Device.Queue is only reached
// through a hal.Device that reports no queue for a class (the
// workqueue tests wrap this device to do that).
func New() *Device {
	return &Device{
		graphicsQueue: &Queue{class: rgtypes.QueueClassGraphics},
		transferQueue: &Queue{class: rgtypes.QueueClassTransfer},
		computeQueue:  &Queue{class: rgtypes.QueueClassCompute},
	}
}

func (d *Device) CreateBuffer(desc *rgtypes.BufferDescriptor) (hal.Buffer, error) {
	if desc.Size == 0 {
		return nil, &hal.CreateBufferError{Kind: hal.CreateBufferErrorZeroSize, Label: desc.Label}
	}
	return &Buffer{data: make([]byte, desc.Size), usage: desc.Location}, nil
}

func (d *Device) DestroyBuffer(hal.Buffer) {}

func (d *Device) MapBuffer(b hal.Buffer) ([]byte, error) {
	buf, ok := b.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("software: not a software buffer")
	}
	if buf.usage == rgtypes.MemoryLocationDevice {
		return nil, hal.ErrNotHostVisible
	}
	if buf.mapped {
		return nil, hal.ErrAlreadyMapped
	}
	buf.mapped = true
	return buf.data, nil
}

func (d *Device) UnmapBuffer(b hal.Buffer) {
	if buf, ok := b.(*Buffer); ok {
		buf.mapped = false
	}
}

func (d *Device) CreateImage(desc *rgtypes.ImageDescriptor) (hal.Image, error) {
	depth := desc.DepthOrLayers
	if depth == 0 {
		depth = 1
	}
	const bytesPerTexel = 4
	size := uint64(desc.Width) * uint64(desc.Height) * uint64(depth) * bytesPerTexel
	return &Image{
		data:   make([]byte, size),
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
	}, nil
}

func (d *Device) DestroyImage(hal.Image) {}

func (d *Device) CreateSampler() (hal.Sampler, error) { return &Sampler{}, nil }
func (d *Device) DestroySampler(hal.Sampler)          {}

func (d *Device) CreateFence() (hal.Fence, error) { return &Fence{}, nil }
func (d *Device) DestroyFence(hal.Fence)          {}

func (d *Device) WaitFence(f hal.Fence, value uint64) (bool, error) {
	fence, ok := f.(*Fence)
	if !ok {
		return true, nil
	}
	return fence.Value() >= value, nil
}

func (d *Device) CreateSemaphore() (hal.Semaphore, error) { return &Semaphore{}, nil }
func (d *Device) DestroySemaphore(hal.Semaphore)          {}

func (d *Device) CreateCommandList(class rgtypes.QueueClass) (hal.CommandList, error) {
	return &CommandList{class: class}, nil
}

func (d *Device) CreateSurface(desc *rgtypes.SurfaceDescriptor) (hal.Surface, error) {
	count := desc.ImageCount
	if count == 0 {
		count = 2
	}
	images := make([]hal.Image, count)
	for i := range images {
		img, err := d.CreateImage(&rgtypes.ImageDescriptor{
			Label:  desc.Label,
			Width:  desc.Width,
			Height: desc.Height,
			Format: desc.Format,
		})
		if err != nil {
			return nil, err
		}
		images[i] = img
	}
	return &Surface{images: images}, nil
}

// Queue returns the queue for class. The software backend always has
// a dedicated queue per class, so this never falls back; device's own
// workqueue layer is what implements the fallback-to-graphics contract
// against a hal.Device that may report it has none.
func (d *Device) Queue(class rgtypes.QueueClass) hal.Queue {
	switch class {
	case rgtypes.QueueClassTransfer:
		return d.transferQueue
	case rgtypes.QueueClassCompute:
		return d.computeQueue
	default:
		return d.graphicsQueue
	}
}

func (d *Device) Destroy() {}
