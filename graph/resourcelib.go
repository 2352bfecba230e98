// Package graph implements the render-graph proper: the graph-scoped
// resource library, the fluent pass builder, the dependency-graph
// compiler, and the per-frame executor with its barrier planner. It is
// the package everything else in this module exists to support.
package graph

import (
	"fmt"

	"github.com/gogpu/rendergraph/device"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgtypes"
)

// BarrierPlanError is the typed value a pass-builder usage declaration
// panics with when it references a ref the resource library never
// declared: spec section 7's "a malformed declaration ... is a
// programming error caught by an assertion," turned into a Go panic
// since this module has no assert macro to reach for. It is only ever
// raised when the owning device's rgconfig.Config.ValidationEnabled is
// set; with validation off the call is a silent no-op instead, per
// spec section 7's release-build behaviour for precondition
// violations. Compiler.AddPass recovers it at the one boundary the
// teacher recovers panics: pass-builder validation.
type BarrierPlanError struct {
	Pass  string
	Msg   string
	Cause error
}

func (e *BarrierPlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("graph: pass %q: %s: %v", e.Pass, e.Msg, e.Cause)
	}
	return fmt.Sprintf("graph: pass %q: %s", e.Pass, e.Msg)
}

func (e *BarrierPlanError) Unwrap() error { return e.Cause }

// imageDeclMarker and bufferDeclMarker distinguish graph-scoped,
// pre-compile resource declarations from the device's own real
// handle.ImageHandle/BufferHandle kinds: a Ref is only good for
// referring to a declaration inside the resource library that
// produced it, and must be resolved through that library to use it
// against a device.
type (
	imageDeclMarker  struct{}
	bufferDeclMarker struct{}
)

func (imageDeclMarker) marker()  {}
func (bufferDeclMarker) marker() {}

// ImageRef is a graph-scoped reference to a declared-but-not-yet-
// compiled image.
type ImageRef = handle.Handle[imageDeclMarker]

// BufferRef is a graph-scoped reference to a declared-but-not-yet-
// compiled buffer.
type BufferRef = handle.Handle[bufferDeclMarker]

type imageDecl struct {
	desc     rgtypes.ImageDescriptor
	usage    rgtypes.Usage
	resolved handle.ImageHandle
	compiled bool
}

type bufferDecl struct {
	desc     rgtypes.BufferDescriptor
	usage    rgtypes.Usage
	resolved handle.BufferHandle
	compiled bool
}

// ResourceLibrary collects image and buffer declarations made while
// building a graph's passes, accumulates the usage mask each pass
// contributes, and materialises every declaration against a device in
// one Compile call, per spec section 4.5.
type ResourceLibrary struct {
	dev     *device.Device
	images  *handle.SlotMap[imageDecl, imageDeclMarker]
	buffers *handle.SlotMap[bufferDecl, bufferDeclMarker]
}

// NewResourceLibrary constructs an empty library bound to dev.
func NewResourceLibrary(dev *device.Device) *ResourceLibrary {
	return &ResourceLibrary{
		dev:     dev,
		images:  handle.NewSlotMap[imageDecl, imageDeclMarker](),
		buffers: handle.NewSlotMap[bufferDecl, bufferDeclMarker](),
	}
}

// DeclareImage records a deferred image creation and returns a
// reference the pass builder can attach usages to.
func (l *ResourceLibrary) DeclareImage(desc rgtypes.ImageDescriptor) ImageRef {
	return l.images.Insert(imageDecl{desc: desc})
}

// DeclareBuffer records a deferred buffer creation.
func (l *ResourceLibrary) DeclareBuffer(desc rgtypes.BufferDescriptor) BufferRef {
	return l.buffers.Insert(bufferDecl{desc: desc})
}

// addImageUsage ORs usage into ref's accumulating usage mask. It is a
// programming error to reference a ref the library did not declare;
// the pass builder, its only caller, forwards whatever ref it is given
// without checking it. With validation off such a ref is a silent
// no-op. With validation on it panics a *BarrierPlanError instead, per
// spec section 7's "caught by an assertion."
func (l *ResourceLibrary) addImageUsage(pass string, ref ImageRef, usage rgtypes.Usage) {
	err := l.images.GetMutErr(ref, func(d *imageDecl) { d.usage |= usage })
	if err != nil && l.dev.Config().ValidationEnabled {
		panic(&BarrierPlanError{Pass: pass, Msg: "usage declared against an image ref the resource library never declared", Cause: err})
	}
}

func (l *ResourceLibrary) addBufferUsage(pass string, ref BufferRef, usage rgtypes.Usage) {
	err := l.buffers.GetMutErr(ref, func(d *bufferDecl) { d.usage |= usage })
	if err != nil && l.dev.Config().ValidationEnabled {
		panic(&BarrierPlanError{Pass: pass, Msg: "usage declared against a buffer ref the resource library never declared", Cause: err})
	}
}

// ExternalImage registers an already-materialised device image as a
// graph-scoped reference, for passes that consume a pre-uploaded
// texture instead of a graph-declared one (spec section 4.6's
// "external-resource overloads").
func (l *ResourceLibrary) ExternalImage(h handle.ImageHandle) ImageRef {
	desc, _ := l.dev.ImageDescriptorOf(h)
	return l.images.Insert(imageDecl{desc: desc, resolved: h, compiled: true})
}

// ExternalBuffer is ExternalImage's buffer equivalent.
func (l *ResourceLibrary) ExternalBuffer(h handle.BufferHandle) BufferRef {
	desc, _ := l.dev.BufferDescriptorOf(h)
	return l.buffers.Insert(bufferDecl{desc: desc, resolved: h, compiled: true})
}

// Compile walks every declared-but-not-yet-compiled resource and
// creates it against the device with its final accumulated usage
// mask, returning an error on the first creation failure.
func (l *ResourceLibrary) Compile() error {
	var imgRefs []ImageRef
	l.images.ForEach(func(ref ImageRef, d imageDecl) bool {
		if !d.compiled {
			imgRefs = append(imgRefs, ref)
		}
		return true
	})
	for _, ref := range imgRefs {
		d, ok := l.images.Get(ref)
		if !ok {
			continue
		}
		desc := d.desc
		desc.Usage = d.usage
		h, err := l.dev.CreateImage(&desc)
		if err != nil {
			return fmt.Errorf("graph: compile image %q: %w", desc.Label, err)
		}
		l.images.GetMut(ref, func(d *imageDecl) { d.resolved = h; d.compiled = true })
	}

	var bufRefs []BufferRef
	l.buffers.ForEach(func(ref BufferRef, d bufferDecl) bool {
		if !d.compiled {
			bufRefs = append(bufRefs, ref)
		}
		return true
	})
	for _, ref := range bufRefs {
		d, ok := l.buffers.Get(ref)
		if !ok {
			continue
		}
		desc := d.desc
		desc.Usage = d.usage
		h, err := l.dev.CreateBuffer(&desc)
		if err != nil {
			return fmt.Errorf("graph: compile buffer %q: %w", desc.Label, err)
		}
		l.buffers.GetMut(ref, func(d *bufferDecl) { d.resolved = h; d.compiled = true })
	}
	return nil
}

// ResolveImage returns the real device handle ref compiled to. It
// only succeeds after Compile has run (or for an ExternalImage ref,
// immediately).
func (l *ResourceLibrary) ResolveImage(ref ImageRef) (handle.ImageHandle, bool) {
	d, ok := l.images.Get(ref)
	if !ok || !d.compiled {
		return handle.Null[handle.ImageMarker](), false
	}
	return d.resolved, true
}

// ResolveBuffer is ResolveImage's buffer equivalent.
func (l *ResourceLibrary) ResolveBuffer(ref BufferRef) (handle.BufferHandle, bool) {
	d, ok := l.buffers.Get(ref)
	if !ok || !d.compiled {
		return handle.Null[handle.BufferMarker](), false
	}
	return d.resolved, true
}

// Destroy releases every resource this library compiled, through the
// device's normal deferred-deletion path.
func (l *ResourceLibrary) Destroy() {
	l.images.ForEach(func(_ ImageRef, d imageDecl) bool {
		if d.compiled {
			l.dev.DestroyImage(d.resolved)
		}
		return true
	})
	l.buffers.ForEach(func(_ BufferRef, d bufferDecl) bool {
		if d.compiled {
			l.dev.DestroyBuffer(d.resolved)
		}
		return true
	})
}
