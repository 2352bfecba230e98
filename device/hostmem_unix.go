//go:build unix

package device

import "golang.org/x/sys/unix"

// hostMapping is a real anonymous memory mapping standing in for a
// mapped host-visible GPU heap, via golang.org/x/sys/unix rather than a
// bare Go slice, since a real Vulkan-class device maps host-visible
// memory into the process address space the same way.
type hostMapping struct {
	data []byte
}

func mapHostMemory(size uint64) (*hostMapping, error) {
	if size == 0 {
		size = 1
	}
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return &hostMapping{data: data}, nil
}

func (m *hostMapping) bytes() []byte { return m.data }

func (m *hostMapping) unmap() {
	if m.data == nil {
		return
	}
	_ = unix.Munmap(m.data)
	m.data = nil
}
