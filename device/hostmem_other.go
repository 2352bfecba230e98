//go:build !unix

package device

// hostMapping falls back to a plain heap allocation on build targets
// without a POSIX mmap (e.g. Windows). This is the one place in this
// package that is deliberately stdlib-only rather than following the
// teacher's golang.org/x/sys usage; see DESIGN.md.
type hostMapping struct {
	data []byte
}

func mapHostMemory(size uint64) (*hostMapping, error) {
	if size == 0 {
		size = 1
	}
	return &hostMapping{data: make([]byte, size)}, nil
}

func (m *hostMapping) bytes() []byte { return m.data }

func (m *hostMapping) unmap() { m.data = nil }
