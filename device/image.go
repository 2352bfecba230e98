package device

import (
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgtypes"
)

// CreateImage allocates an image per desc and registers it.
func (d *Device) CreateImage(desc *rgtypes.ImageDescriptor) (handle.ImageHandle, error) {
	img, err := d.hal.CreateImage(desc)
	if err != nil {
		hal.Logger().Error("device: create image failed", "label", desc.Label, "err", err)
		return handle.Null[handle.ImageMarker](), &CreateError{Label: desc.Label, Cause: err}
	}
	return d.images.Insert(&imageRecord{img: img, desc: *desc}), nil
}

// DestroyImage enqueues img's release through the deletion queue.
// Swapchain-owned images skip the native destroy (the presentation
// engine owns that image, not this module) but still release the
// wrapper record, per spec section 4.3.
func (d *Device) DestroyImage(h handle.ImageHandle) {
	rec, ok := d.images.Erase(h)
	if !ok {
		return
	}
	if rec.isSwapchainImage {
		return
	}
	frame := d.CurrentFrame()
	d.deletions.Enqueue(frame, func() { d.hal.DestroyImage(rec.img) })
}

// HALImage resolves h to its backend image object.
func (d *Device) HALImage(h handle.ImageHandle) (hal.Image, bool) {
	rec, ok := d.images.Get(h)
	if !ok {
		return nil, false
	}
	return rec.img, true
}

// ImageDescriptorOf returns the descriptor h was created with.
func (d *Device) ImageDescriptorOf(h handle.ImageHandle) (rgtypes.ImageDescriptor, bool) {
	rec, ok := d.images.Get(h)
	if !ok {
		return rgtypes.ImageDescriptor{}, false
	}
	return rec.desc, true
}

// IsSwapchainImage reports whether h was created as a render surface's
// back-buffer wrapper rather than a standalone image.
func (d *Device) IsSwapchainImage(h handle.ImageHandle) bool {
	rec, ok := d.images.Get(h)
	return ok && rec.isSwapchainImage
}

func (d *Device) registerSwapchainImage(img hal.Image, desc rgtypes.ImageDescriptor) handle.ImageHandle {
	return d.images.Insert(&imageRecord{img: img, desc: desc, isSwapchainImage: true})
}
