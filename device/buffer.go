package device

import (
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgtypes"
)

// physicalSize returns the real allocation size for desc: a per-frame
// buffer is sized framesInFlight*desc.Size, a regular buffer is just
// desc.Size.
func (d *Device) physicalSize(desc *rgtypes.BufferDescriptor) uint64 {
	if desc.PerFrame {
		return desc.Size * d.cfg.FramesInFlight
	}
	return desc.Size
}

// CreateBuffer allocates a buffer per desc, registering it in the
// device's buffer slot map. Host-visible and host-visible-device
// buffers additionally get a real mapped memory region (see
// hostmem_unix.go) so MapBuffer/MapBufferFrame return a span backed by
// an actual mapping rather than the hal backend's own storage.
func (d *Device) CreateBuffer(desc *rgtypes.BufferDescriptor) (handle.BufferHandle, error) {
	physSize := d.physicalSize(desc)
	halDesc := *desc
	halDesc.Size = physSize
	buf, err := d.hal.CreateBuffer(&halDesc)
	if err != nil {
		hal.Logger().Error("device: create buffer failed", "label", desc.Label, "err", err)
		return handle.Null[handle.BufferMarker](), &CreateError{Label: desc.Label, Cause: err}
	}

	rec := &bufferRecord{buf: buf, desc: *desc}
	if desc.Location != rgtypes.MemoryLocationDevice {
		host, err := mapHostMemory(physSize)
		if err != nil {
			hal.Logger().Error("device: map host memory failed", "label", desc.Label, "err", err)
			d.hal.DestroyBuffer(buf)
			return handle.Null[handle.BufferMarker](), &CreateError{Label: desc.Label, Cause: err}
		}
		rec.host = host
	}
	return d.buffers.Insert(rec), nil
}

// DestroyBuffer enqueues buf's release through the deletion queue at
// the current frame: the native buffer (and any host mapping) is not
// actually torn down until FramesInFlight subsequent EndFrame calls
// have elapsed.
func (d *Device) DestroyBuffer(h handle.BufferHandle) {
	rec, ok := d.buffers.Erase(h)
	if !ok {
		return
	}
	frame := d.CurrentFrame()
	d.deletions.Enqueue(frame, func() {
		d.hal.DestroyBuffer(rec.buf)
		if rec.host != nil {
			rec.host.unmap()
		}
	})
}

// HALBuffer resolves h to its backend buffer object, for use by the
// workqueue and graph packages that need to hand a real hal.Buffer to
// a barrier or command list.
func (d *Device) HALBuffer(h handle.BufferHandle) (hal.Buffer, bool) {
	rec, ok := d.buffers.Get(h)
	if !ok {
		return nil, false
	}
	return rec.buf, true
}

// BufferDescriptorOf returns the descriptor h was created with.
func (d *Device) BufferDescriptorOf(h handle.BufferHandle) (rgtypes.BufferDescriptor, bool) {
	rec, ok := d.buffers.Get(h)
	if !ok {
		return rgtypes.BufferDescriptor{}, false
	}
	return rec.desc, true
}

// MapBuffer maps the entirety of h's host-visible memory. For a
// per-frame buffer this is the full framesInFlight*Size physical
// allocation; callers that want the current frame's slice should use
// MapBufferFrame instead.
func (d *Device) MapBuffer(h handle.BufferHandle) ([]byte, error) {
	rec, err := d.buffers.GetErr(h)
	if err != nil {
		return nil, &MapError{Kind: MapErrorInvalidHandle, Cause: err}
	}
	if rec.host == nil {
		return nil, &MapError{Kind: MapErrorNotHostVisible}
	}
	d.buffers.GetMut(h, func(r **bufferRecord) { (*r).mapped = true })
	return rec.host.bytes(), nil
}

// MapBufferFrame returns the span of h's host mapping corresponding to
// the device's current frame offset. It must be recomputed every call
// against the live current frame index per spec section 9's design
// note: callers must never cache the returned offset across frames.
func (d *Device) MapBufferFrame(h handle.BufferHandle) ([]byte, error) {
	rec, err := d.buffers.GetErr(h)
	if err != nil {
		return nil, &MapError{Kind: MapErrorInvalidHandle, Cause: err}
	}
	if rec.host == nil {
		return nil, &MapError{Kind: MapErrorNotHostVisible}
	}
	if !rec.desc.PerFrame {
		return nil, ErrNotPerFrame
	}
	offset := d.GetBufferFrameOffset(h)
	data := rec.host.bytes()
	end := offset + rec.desc.Size
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	return data[offset:end], nil
}

// UnmapBuffer marks h as no longer mapped. The software host mapping
// stays resident (unmapping a real mmap only happens on destroy); this
// just clears the bookkeeping flag a debug build could assert against.
func (d *Device) UnmapBuffer(h handle.BufferHandle) {
	d.buffers.GetMut(h, func(r **bufferRecord) { (*r).mapped = false })
}

// GetBufferFrameOffset returns the byte offset into h's physical
// allocation that the current frame's logical slice starts at:
// (currentFrame mod framesInFlight) * logicalSize. It is always
// computed against the live frame index, never cached.
func (d *Device) GetBufferFrameOffset(h handle.BufferHandle) uint64 {
	rec, ok := d.buffers.Get(h)
	if !ok || !rec.desc.PerFrame {
		return 0
	}
	slot := d.CurrentFrame() % d.cfg.FramesInFlight
	return slot * rec.desc.Size
}
