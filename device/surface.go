package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgtypes"
)

// AcquireResult is what AcquireNextImage hands back on success: the
// handle for the back-buffer to render into this frame plus its index
// within the surface's image ring, matching spec section 4.3's
// acquire_next_image contract.
type AcquireResult struct {
	Image      handle.ImageHandle
	ImageIndex uint32
}

// CreateRenderSurface creates a native surface bound to window, then a
// swapchain per desc, registering one image handle per back-buffer
// (each flagged as swapchain-owned so DestroyImage never calls the
// backend's native destroy on it).
func (d *Device) CreateRenderSurface(desc *rgtypes.SurfaceDescriptor, window any) (handle.RenderSurfaceHandle, error) {
	surf, err := d.hal.CreateSurface(desc)
	if err != nil {
		return handle.Null[handle.RenderSurfaceMarker](), &CreateError{Label: desc.Label, Cause: err}
	}

	images := surf.Images()
	imageHandles := make([]handle.ImageHandle, len(images))
	for i, img := range images {
		imageHandles[i] = d.registerSwapchainImage(img, rgtypes.ImageDescriptor{
			Label:  fmt.Sprintf("%s[%d]", desc.Label, i),
			Width:  desc.Width,
			Height: desc.Height,
			Format: desc.Format,
		})
	}

	rec := &surfaceRecord{surf: surf, images: imageHandles, window: window}
	return d.surfaces.Insert(rec), nil
}

// HALSurface resolves h to its backend surface object.
func (d *Device) HALSurface(h handle.RenderSurfaceHandle) (hal.Surface, bool) {
	rec, ok := d.surfaces.Get(h)
	if !ok {
		return nil, false
	}
	return rec.surf, true
}

// SurfaceImages returns the image handles for h's back-buffer ring.
func (d *Device) SurfaceImages(h handle.RenderSurfaceHandle) ([]handle.ImageHandle, bool) {
	rec, ok := d.surfaces.Get(h)
	if !ok {
		return nil, false
	}
	out := make([]handle.ImageHandle, len(rec.images))
	copy(out, rec.images)
	return out, true
}

// AcquireNextImage acquires the next back-buffer for h, signalling
// signal when the image is ready. On out-of-date or suboptimal
// surfaces it returns ErrSwapchainOutOfDate: the client is expected to
// recreate the surface and retry, per spec section 4.3 and 7.
func (d *Device) AcquireNextImage(h handle.RenderSurfaceHandle, signal hal.Semaphore) (AcquireResult, error) {
	rec, err := d.surfaces.GetErr(h)
	if err != nil {
		return AcquireResult{}, fmt.Errorf("device: acquire next image: %w", err)
	}
	idx, suboptimal, err := rec.surf.AcquireNextImage(signal)
	if err != nil {
		if errors.Is(err, hal.ErrSurfaceOutOfDate) {
			return AcquireResult{}, ErrSwapchainOutOfDate
		}
		return AcquireResult{}, fmt.Errorf("device: acquire next image: %w", err)
	}
	if suboptimal {
		return AcquireResult{}, ErrSwapchainOutOfDate
	}
	d.surfaces.GetMut(h, func(r **surfaceRecord) { (*r).currentIndex = idx })
	if int(idx) >= len(rec.images) {
		return AcquireResult{}, fmt.Errorf("device: acquire returned out-of-range image index %d", idx)
	}
	return AcquireResult{Image: rec.images[idx], ImageIndex: idx}, nil
}

// DestroyRenderSurface destroys the underlying swapchain/surface and
// the registry's image wrappers for it. Unlike buffers/images this is
// not deferred: the swapchain's own recreation discipline already
// handles in-flight safety (spec section 4.3's out-of-date contract),
// so there is no additional frames-in-flight window to respect here.
func (d *Device) DestroyRenderSurface(h handle.RenderSurfaceHandle) {
	rec, ok := d.surfaces.Erase(h)
	if !ok {
		return
	}
	for _, imgHandle := range rec.images {
		d.images.Erase(imgHandle)
	}
	rec.surf.Destroy()
}
