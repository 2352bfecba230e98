package device

import (
	"errors"
	"testing"

	"github.com/gogpu/rendergraph/hal/software"
	"github.com/gogpu/rendergraph/rgconfig"
	"github.com/gogpu/rendergraph/rgtypes"
)

func newTestDevice(t *testing.T, opts ...rgconfig.Option) *Device {
	t.Helper()
	dev, err := New(software.Backend{}, rgconfig.New(opts...))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return dev
}

func TestCreateBufferThenFindSucceeds(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.CreateBuffer(&rgtypes.BufferDescriptor{Label: "b", Size: 64, Location: rgtypes.MemoryLocationDevice})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if _, ok := dev.HALBuffer(h); !ok {
		t.Fatal("HALBuffer() ok = false for freshly created buffer")
	}
}

// Scenario: release a buffer at frame F, call end_frame exactly
// framesInFlight times, expect it destroyed; fewer calls, expect it
// still live (the software backend exposes no "destroyed" flag, so
// destruction is tracked through the deletion queue's pending count
// instead of the handle itself).
func TestDeletionRespectsFramesInFlight(t *testing.T) {
	dev := newTestDevice(t, rgconfig.WithFramesInFlight(2))
	h, err := dev.CreateBuffer(&rgtypes.BufferDescriptor{Label: "b", Size: 64, Location: rgtypes.MemoryLocationDevice})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}

	// The software backend's buffer Destroy is a no-op, so assert the
	// deferral through the deletion queue's pending count instead.
	dev.DestroyBuffer(h)

	if dev.deletions.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1 right after DestroyBuffer", dev.deletions.Pending())
	}
	dev.EndFrame() // frame 1
	if dev.deletions.Pending() != 1 {
		t.Fatalf("Pending() = %d after 1 EndFrame, want still 1 (framesInFlight=2)", dev.deletions.Pending())
	}
	dev.EndFrame() // frame 2
	if dev.deletions.Pending() != 0 {
		t.Fatalf("Pending() = %d after 2 EndFrame calls, want 0", dev.deletions.Pending())
	}
}

func TestHALBufferInvalidAfterDestroy(t *testing.T) {
	dev := newTestDevice(t)
	h, _ := dev.CreateBuffer(&rgtypes.BufferDescriptor{Label: "b", Size: 64, Location: rgtypes.MemoryLocationDevice})
	dev.DestroyBuffer(h)
	if _, ok := dev.HALBuffer(h); ok {
		t.Fatal("HALBuffer() ok = true for an erased handle")
	}
}

func TestPerFrameBufferOffsetsRotate(t *testing.T) {
	dev := newTestDevice(t, rgconfig.WithFramesInFlight(2))
	h, err := dev.CreateBuffer(&rgtypes.BufferDescriptor{
		Label:    "constants",
		Size:     256,
		Location: rgtypes.MemoryLocationHostVisible,
		PerFrame: true,
	})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}

	if off := dev.GetBufferFrameOffset(h); off != 0 {
		t.Fatalf("frame 0 offset = %d, want 0", off)
	}
	dev.EndFrame() // now at frame 1
	if off := dev.GetBufferFrameOffset(h); off != 256 {
		t.Fatalf("frame 1 offset = %d, want 256", off)
	}
	dev.EndFrame() // frame 2, wraps back to slot 0
	if off := dev.GetBufferFrameOffset(h); off != 0 {
		t.Fatalf("frame 2 offset = %d, want 0 (wrapped)", off)
	}

	span1, err := dev.MapBufferFrame(h)
	if err != nil {
		t.Fatalf("MapBufferFrame() error = %v", err)
	}
	if len(span1) != 256 {
		t.Fatalf("len(span) = %d, want 256", len(span1))
	}
}

func TestMapBufferRejectsDeviceLocalMemory(t *testing.T) {
	dev := newTestDevice(t)
	h, _ := dev.CreateBuffer(&rgtypes.BufferDescriptor{Label: "b", Size: 64, Location: rgtypes.MemoryLocationDevice})
	if _, err := dev.MapBuffer(h); err == nil {
		t.Fatal("MapBuffer() on device-local buffer succeeded, want error")
	}
}

func TestMapBufferFrameRejectsNonPerFrameBuffer(t *testing.T) {
	dev := newTestDevice(t)
	h, _ := dev.CreateBuffer(&rgtypes.BufferDescriptor{Label: "b", Size: 64, Location: rgtypes.MemoryLocationHostVisible})
	if _, err := dev.MapBufferFrame(h); !errors.Is(err, ErrNotPerFrame) {
		t.Fatalf("MapBufferFrame() error = %v, want ErrNotPerFrame", err)
	}
}

func TestCreateImageAndDestroy(t *testing.T) {
	dev := newTestDevice(t)
	h, err := dev.CreateImage(&rgtypes.ImageDescriptor{Label: "color", Width: 64, Height: 64, Format: rgtypes.FormatRGBA8Unorm})
	if err != nil {
		t.Fatalf("CreateImage() error = %v", err)
	}
	if _, ok := dev.HALImage(h); !ok {
		t.Fatal("HALImage() ok = false")
	}
	dev.DestroyImage(h)
	if _, ok := dev.HALImage(h); ok {
		t.Fatal("HALImage() ok = true after DestroyImage")
	}
}

func TestSwapchainImagesAreFlaggedAndSkipNativeDestroy(t *testing.T) {
	dev := newTestDevice(t)
	surfH, err := dev.CreateRenderSurface(&rgtypes.SurfaceDescriptor{Label: "main", Width: 800, Height: 600, ImageCount: 2}, nil)
	if err != nil {
		t.Fatalf("CreateRenderSurface() error = %v", err)
	}
	images, ok := dev.SurfaceImages(surfH)
	if !ok || len(images) != 2 {
		t.Fatalf("SurfaceImages() = %v, %v, want 2 images", images, ok)
	}
	for _, imgH := range images {
		if !dev.IsSwapchainImage(imgH) {
			t.Fatal("IsSwapchainImage() = false for a swapchain back-buffer")
		}
	}
}

func TestAcquireNextImageRoundRobins(t *testing.T) {
	dev := newTestDevice(t)
	surfH, _ := dev.CreateRenderSurface(&rgtypes.SurfaceDescriptor{Label: "main", Width: 640, Height: 480, ImageCount: 2}, nil)

	first, err := dev.AcquireNextImage(surfH, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage() error = %v", err)
	}
	second, err := dev.AcquireNextImage(surfH, nil)
	if err != nil {
		t.Fatalf("AcquireNextImage() error = %v", err)
	}
	if first.ImageIndex == second.ImageIndex {
		t.Fatal("two consecutive acquires returned the same image index")
	}
}
