package graph

import (
	"errors"

	"github.com/gogpu/rendergraph/device"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgtypes"
)

// ErrDependencyCycle is returned by Compile when the pass dependency
// graph (explicit DependsOn edges plus implicit resource-usage
// ordering) contains a cycle.
var ErrDependencyCycle = errors.New("graph: pass dependency cycle")

// Compiler accumulates a resource library and a set of passes, then
// produces an executable Graph. It corresponds to the
// render_graph_compiler the original renderer builds a graph through.
type Compiler struct {
	dev      *device.Device
	lib      *ResourceLibrary
	passes   []*PassBuilder
	buildErr error
}

// NewCompiler constructs a Compiler bound to dev, with its own
// ResourceLibrary.
func NewCompiler(dev *device.Device) *Compiler {
	return &Compiler{
		dev: dev,
		lib: NewResourceLibrary(dev),
	}
}

// Resources returns the compiler's resource library, for declaring
// images and buffers before building passes that reference them.
func (c *Compiler) Resources() *ResourceLibrary { return c.lib }

// AddPass constructs a new pass, invokes build to configure it, and
// appends it to the compiler's pass list. The returned handle is fixed
// at this point and can be passed to a later pass's DependsOn before
// Compile runs.
func (c *Compiler) AddPass(name string, class rgtypes.QueueClass, build func(*PassBuilder)) PassHandle {
	pb := newPassBuilder(c.lib, name, class, len(c.passes))
	if build != nil {
		c.runBuild(pb, build)
	}
	c.passes = append(c.passes, pb)
	return pb.self
}

// runBuild invokes build against pb, recovering a *BarrierPlanError at
// this boundary the way the teacher recovers panics at exactly one
// place: pass-builder validation (spec section 7's "programming error
// caught by an assertion," a Go panic standing in for the assertion).
// The first such error short-circuits every subsequent AddPass call's
// build closure and is surfaced by Compile instead of panicking the
// caller's goroutine. Any other panic value is not this module's to
// catch and is re-raised.
func (c *Compiler) runBuild(pb *PassBuilder, build func(*PassBuilder)) {
	if c.buildErr != nil {
		return
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		bpe, ok := r.(*BarrierPlanError)
		if !ok {
			panic(r)
		}
		c.buildErr = bpe
	}()
	build(pb)
}

// implicitEdges returns, for each pass index, the set of pass indices
// that must execute before it: every explicit DependsOn, plus an edge
// from the most recent earlier pass that touched the same image or
// buffer ref (any access kind orders the two passes relative to each
// other; this module does not try to allow two read-only users of the
// same resource to run out of original order, favouring a simpler and
// always-correct ordering over maximal parallelism extraction).
func (c *Compiler) implicitEdges() [][]int {
	deps := make([][]int, len(c.passes))
	lastImageUser := make(map[ImageRef]int)
	lastBufferUser := make(map[BufferRef]int)
	lastSwapchainUser := make(map[uint64]int)

	for i, p := range c.passes {
		seen := make(map[int]bool)
		addDep := func(j int) {
			if j != i && !seen[j] {
				seen[j] = true
				deps[i] = append(deps[i], j)
			}
		}
		for _, d := range p.dependsOn {
			addDep(int(d.Index()))
		}
		for _, iu := range p.images {
			if j, ok := lastImageUser[iu.ref]; ok {
				addDep(j)
			}
			lastImageUser[iu.ref] = i
		}
		for _, bu := range p.buffers {
			if j, ok := lastBufferUser[bu.ref]; ok {
				addDep(j)
			}
			lastBufferUser[bu.ref] = i
		}
		for _, su := range p.swapchains {
			key := su.surface.Raw()
			if j, ok := lastSwapchainUser[uint64(key)]; ok {
				addDep(j)
			}
			lastSwapchainUser[uint64(key)] = i
		}
	}
	return deps
}

// toposort runs Kahn's algorithm over the full pass list restricted to
// the indices where active[i] is true, breaking ties by picking the
// lowest original index among the current frontier so that two passes
// with no ordering constraint between them keep their declaration
// order.
func toposort(deps [][]int, active []bool) ([]int, error) {
	n := len(deps)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	for i, ds := range deps {
		if !active[i] {
			continue
		}
		for _, d := range ds {
			if !active[d] {
				continue
			}
			indegree[i]++
			dependents[d] = append(dependents[d], i)
		}
	}

	remaining := 0
	for i := range active {
		if active[i] {
			remaining++
		}
	}

	order := make([]int, 0, remaining)
	done := make([]bool, n)
	for len(order) < remaining {
		next := -1
		for i := 0; i < n; i++ {
			if !active[i] || done[i] || indegree[i] > 0 {
				continue
			}
			next = i
			break
		}
		if next == -1 {
			return nil, ErrDependencyCycle
		}
		done[next] = true
		order = append(order, next)
		for _, dep := range dependents[next] {
			indegree[dep]--
		}
	}
	return order, nil
}

// Compile materialises the resource library and produces the initial
// executable Graph with its first topological ordering.
func (c *Compiler) Compile() (*Graph, error) {
	if c.buildErr != nil {
		return nil, c.buildErr
	}
	if err := c.lib.Compile(); err != nil {
		return nil, err
	}
	for _, p := range c.passes {
		p.resolveStages()
	}

	deps := c.implicitEdges()
	active := make([]bool, len(c.passes))
	for i, p := range c.passes {
		active[i] = p.isActive()
	}
	order, err := toposort(deps, active)
	if err != nil {
		return nil, err
	}

	return &Graph{
		dev:    c.dev,
		lib:    c.lib,
		passes: c.passes,
		deps:   deps,
		active: active,
		order:  order,
		states: newStateTable(),
		fence:  handle.Null[handle.FenceMarker](),
	}, nil
}
