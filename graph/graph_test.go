package graph

import (
	"testing"

	"github.com/gogpu/rendergraph/device"
	"github.com/gogpu/rendergraph/hal/software"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgconfig"
	"github.com/gogpu/rendergraph/rgtypes"
	"github.com/gogpu/rendergraph/workqueue"
)

func newTestDevice(t *testing.T, opts ...rgconfig.Option) *device.Device {
	t.Helper()
	dev, err := device.New(software.Backend{}, rgconfig.New(opts...))
	if err != nil {
		t.Fatalf("device.New() error = %v", err)
	}
	return dev
}

func bindGraph(t *testing.T, dev *device.Device, g *Graph) {
	t.Helper()
	g.Bind(workqueue.New(dev.HAL()))
}

func TestSingleColorPassEmitsOneBarrier(t *testing.T) {
	dev := newTestDevice(t)
	c := NewCompiler(dev)
	img := c.Resources().DeclareImage(rgtypes.ImageDescriptor{Width: 64, Height: 64, Format: rgtypes.FormatRGBA8Unorm})

	var barrierCalls int
	c.AddPass("clear", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.ColorAttachment(img, rgtypes.AccessWrite, LoadOpClear, StoreOpStore, ClearValue{})
		p.OnExecute(func(cr CommandRecorder) {
			if cl, ok := cr.(*software.CommandList); ok {
				barrierCalls = len(cl.Barriers)
			}
		})
	})

	g, err := c.Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	bindGraph(t, dev, g)

	if err := g.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if barrierCalls != 1 {
		t.Fatalf("barrier calls = %d, want 1 (undefined -> color attachment)", barrierCalls)
	}
}

func TestTwoPassDeferredReadOrdersWriterBeforeReader(t *testing.T) {
	dev := newTestDevice(t)
	c := NewCompiler(dev)
	img := c.Resources().DeclareImage(rgtypes.ImageDescriptor{Width: 64, Height: 64, Format: rgtypes.FormatRGBA8Unorm})

	var order []string
	c.AddPass("write", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.ColorAttachment(img, rgtypes.AccessWrite, LoadOpClear, StoreOpStore, ClearValue{})
		p.OnExecute(func(CommandRecorder) { order = append(order, "write") })
	})
	c.AddPass("read", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.SampledImage(img, rgtypes.StageFragment, rgtypes.StageFragment)
		p.OnExecute(func(CommandRecorder) { order = append(order, "read") })
	})

	g, err := c.Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	bindGraph(t, dev, g)
	if err := g.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(order) != 2 || order[0] != "write" || order[1] != "read" {
		t.Fatalf("execution order = %v, want [write read]", order)
	}
}

func TestInactivePassIsSkippedAndReordersOnChange(t *testing.T) {
	dev := newTestDevice(t)
	c := NewCompiler(dev)
	img := c.Resources().DeclareImage(rgtypes.ImageDescriptor{Width: 64, Height: 64, Format: rgtypes.FormatRGBA8Unorm})

	active := false
	var order []string
	c.AddPass("optional", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.ColorAttachment(img, rgtypes.AccessWrite, LoadOpClear, StoreOpStore, ClearValue{})
		p.ShouldExecute(func() bool { return active })
		p.OnExecute(func(CommandRecorder) { order = append(order, "optional") })
	})
	c.AddPass("always", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.SampledImage(img, rgtypes.StageFragment, rgtypes.StageFragment)
		p.OnExecute(func(CommandRecorder) { order = append(order, "always") })
	})

	g, err := c.Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	bindGraph(t, dev, g)

	if err := g.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(order) != 1 || order[0] != "always" {
		t.Fatalf("execution order = %v, want [always] with optional pass inactive", order)
	}

	order = nil
	active = true
	if err := g.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(order) != 2 || order[0] != "optional" || order[1] != "always" {
		t.Fatalf("execution order = %v, want [optional always] once the optional pass goes active", order)
	}
}

func TestMalformedDeclarationPanicsWhenValidationEnabled(t *testing.T) {
	dev := newTestDevice(t, rgconfig.WithValidation(true))
	c := NewCompiler(dev)
	bogus := handle.NewHandle[imageDeclMarker](999, 1)

	c.AddPass("bad", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.SampledImage(bogus, rgtypes.StageFragment, rgtypes.StageFragment)
	})

	_, err := c.Compile()
	if err == nil {
		t.Fatal("Compile() error = nil, want *BarrierPlanError for an undeclared image ref")
	}
	if _, ok := err.(*BarrierPlanError); !ok {
		t.Fatalf("Compile() error type = %T, want *BarrierPlanError", err)
	}
}

func TestMalformedDeclarationIsNoOpWithoutValidation(t *testing.T) {
	dev := newTestDevice(t)
	c := NewCompiler(dev)
	bogus := handle.NewHandle[imageDeclMarker](999, 1)

	c.AddPass("bad", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.SampledImage(bogus, rgtypes.StageFragment, rgtypes.StageFragment)
	})

	if _, err := c.Compile(); err != nil {
		t.Fatalf("Compile() error = %v, want nil (ValidationEnabled defaults false, so a malformed ref is a silent no-op)", err)
	}
}

func TestDependencyCycleFailsCompile(t *testing.T) {
	dev := newTestDevice(t)
	c := NewCompiler(dev)

	var a, b PassHandle
	a = c.AddPass("a", rgtypes.QueueClassGraphics, func(p *PassBuilder) {})
	b = c.AddPass("b", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.DependsOn(a)
	})
	_ = b
	// Force a cycle by making "a" depend on "b" too, after the fact.
	c.passes[0].DependsOn(c.passes[1].Handle())

	if _, err := c.Compile(); err == nil {
		t.Fatal("Compile() error = nil, want ErrDependencyCycle")
	}
}

func TestSwapchainPassPresentsAndTransitionsToPresentLayout(t *testing.T) {
	dev := newTestDevice(t)
	surf, err := dev.CreateRenderSurface(&rgtypes.SurfaceDescriptor{Label: "main", Width: 640, Height: 480, ImageCount: 2}, nil)
	if err != nil {
		t.Fatalf("CreateRenderSurface() error = %v", err)
	}

	c := NewCompiler(dev)
	var ran bool
	c.AddPass("blit", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.SwapchainAttachment(surf, rgtypes.AccessWrite, LoadOpClear, StoreOpStore, ClearValue{})
		p.OnExecute(func(CommandRecorder) { ran = true })
	})

	g, err := c.Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	bindGraph(t, dev, g)

	if err := g.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !ran {
		t.Fatal("swapchain pass never executed")
	}
	if got := g.states.swapchain(surf).layout; got != rgtypes.ImageLayoutPresentSrc {
		t.Fatalf("swapchain layout after Execute = %v, want ImageLayoutPresentSrc", got)
	}
}

func TestCompileWithNoActivePassesProducesEmptyOrder(t *testing.T) {
	dev := newTestDevice(t)
	c := NewCompiler(dev)
	img := c.Resources().DeclareImage(rgtypes.ImageDescriptor{Width: 64, Height: 64, Format: rgtypes.FormatRGBA8Unorm})
	c.AddPass("never", rgtypes.QueueClassGraphics, func(p *PassBuilder) {
		p.ColorAttachment(img, rgtypes.AccessWrite, LoadOpClear, StoreOpStore, ClearValue{})
		p.ShouldExecute(func() bool { return false })
	})

	g, err := c.Compile()
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(g.order) != 0 {
		t.Fatalf("order = %v, want empty with every pass inactive", g.order)
	}
}
