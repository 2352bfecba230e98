// Package software implements hal.Device purely in Go, with real
// byte-slice-backed buffers and images instead of a GPU allocation.
// It exists so the device, workqueue and graph packages can be built
// and tested without a real Vulkan loader.
package software

import (
	"sync/atomic"

	"github.com/gogpu/rendergraph/rgtypes"
)

// Buffer is a software buffer backed by a real byte slice.
type Buffer struct {
	data    []byte
	usage   rgtypes.MemoryLocation
	mapped  bool
}

func (b *Buffer) Destroy()      {}
func (b *Buffer) Size() uint64  { return uint64(len(b.data)) }

// Image is a software image backed by a real byte slice, four bytes
// per texel regardless of declared format (the software backend does
// not need to interpret pixel contents, only account for their size).
type Image struct {
	data   []byte
	width  uint32
	height uint32
	format rgtypes.Format
}

func (im *Image) Destroy()              {}
func (im *Image) Width() uint32         { return im.width }
func (im *Image) Height() uint32        { return im.height }
func (im *Image) Format() rgtypes.Format { return im.format }

// Sampler is a stateless placeholder; the software backend does not
// sample textures.
type Sampler struct{}

func (s *Sampler) Destroy() {}

// Fence is a monotonically increasing atomic counter standing in for
// a real GPU timeline fence.
type Fence struct {
	value atomic.Uint64
}

func (f *Fence) Destroy()       {}
func (f *Fence) Value() uint64  { return f.value.Load() }
func (f *Fence) signal(v uint64) { f.value.Store(v) }

// Semaphore carries no state in the software backend: submission is
// synchronous, so there is nothing to wait on.
type Semaphore struct{}

func (s *Semaphore) Destroy() {}
