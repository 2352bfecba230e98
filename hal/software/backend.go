package software

import "github.com/gogpu/rendergraph/hal"

// Backend is the hal.Backend implementation for the software device.
type Backend struct{}

func (Backend) Name() string { return "software" }

func (Backend) CreateDevice() (hal.Device, error) {
	return New(), nil
}
