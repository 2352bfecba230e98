package device

import (
	"errors"
	"fmt"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/handle"
)

// Sentinel errors for the non-fatal, typed-result cases spec section 7
// calls out: invalid handle lookups are never fatal, they just fail
// the call.
//
// ErrResourceNotFound and ErrEpochMismatch alias the handle package's
// own sentinels rather than redeclaring them: the slot map is what
// actually distinguishes "this index was never live" from "this index
// is live, but under a newer generation than the handle carries" (spec
// section 3's generational handle contract), so the device package
// re-exports that distinction instead of re-deriving it, keeping
// errors.Is true across the package boundary. ErrDeviceLost similarly
// aliases the hal package's sentinel rather than redeclaring it.
// ErrInvalidHandle is a coarse invalid-or-stale sentinel; no function
// in this package returns it.
var (
	ErrInvalidHandle      = errors.New("device: invalid or stale handle")
	ErrResourceNotFound   = handle.ErrResourceNotFound
	ErrEpochMismatch      = handle.ErrEpochMismatch
	ErrNotPerFrame        = errors.New("device: buffer was not created with PerFrame")
	ErrSwapchainOutOfDate = errors.New("device: swapchain is out of date, recreate required")
	ErrDeviceLost         = hal.ErrDeviceLost
)

// MapErrorKind enumerates why a map request was rejected.
type MapErrorKind int

const (
	MapErrorInvalidHandle MapErrorKind = iota
	MapErrorNotHostVisible
	MapErrorBackend
)

// MapError carries structured detail about a rejected map request,
// matching the teacher's struct-error-type convention for cases spec
// section 7 calls out as needing detail beyond a sentinel.
type MapError struct {
	Kind  MapErrorKind
	Cause error
}

func (e *MapError) Error() string {
	switch e.Kind {
	case MapErrorInvalidHandle:
		if e.Cause != nil {
			return fmt.Sprintf("device: map: invalid handle: %v", e.Cause)
		}
		return "device: map: invalid handle"
	case MapErrorNotHostVisible:
		return "device: map: buffer memory is not host-visible"
	default:
		return fmt.Sprintf("device: map: %v", e.Cause)
	}
}

func (e *MapError) Unwrap() error { return e.Cause }

// CreateError carries structured detail about a rejected resource
// creation request (spec: "Resource creation failure - device returns
// a null handle and logs at error level").
type CreateError struct {
	Label string
	Cause error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("device: create %q: %v", e.Label, e.Cause)
}

func (e *CreateError) Unwrap() error { return e.Cause }
