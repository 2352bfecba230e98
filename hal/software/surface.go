package software

import (
	"github.com/gogpu/rendergraph/hal"
)

// Surface is a software render surface: a fixed ring of in-memory
// images cycled round-robin on each acquire, standing in for a real
// swapchain.
type Surface struct {
	images []hal.Image
	next   uint32
}

func (s *Surface) Destroy() {}

func (s *Surface) Images() []hal.Image { return s.images }

// AcquireNextImage always succeeds: the software backend never goes
// out of date or suboptimal, since it never actually resizes a native
// window surface.
func (s *Surface) AcquireNextImage(_ hal.Semaphore) (uint32, bool, error) {
	idx := s.next
	s.next = (s.next + 1) % uint32(len(s.images))
	return idx, false, nil
}

func (s *Surface) Present(_ hal.Queue, _ uint32, _ []hal.Semaphore) error {
	return nil
}
