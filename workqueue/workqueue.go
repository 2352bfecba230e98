// Package workqueue wraps hal.Device's queue discovery and command
// list lifetime into the per-frame submit/present shape spec section
// 4.4 describes: command lists are pooled per queue family and reset
// at frame boundaries instead of being recreated every frame, and a
// request for a dedicated transfer/compute queue transparently falls
// back to the primary graphics queue when the device has none.
package workqueue

import (
	"fmt"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/rgtypes"
)

// commandListPool keeps a free list of already-created command lists
// for one queue class so ResetFrame can hand them back out next frame
// instead of asking the backend to allocate new ones every frame.
type commandListPool struct {
	dev   hal.Device
	class rgtypes.QueueClass
	free  []hal.CommandList
	inUse []hal.CommandList
}

func (p *commandListPool) acquire() (hal.CommandList, error) {
	var cl hal.CommandList
	if n := len(p.free); n > 0 {
		cl = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		created, err := p.dev.CreateCommandList(p.class)
		if err != nil {
			return nil, fmt.Errorf("workqueue: create command list: %w", err)
		}
		cl = created
	}
	p.inUse = append(p.inUse, cl)
	return cl, nil
}

func (p *commandListPool) resetFrame() {
	for _, cl := range p.inUse {
		cl.Reset()
		p.free = append(p.free, cl)
	}
	p.inUse = p.inUse[:0]
}

// Manager is the per-device work-queue front end: it discovers the
// graphics/transfer/compute queues at construction, exposing fallback
// to the primary graphics queue when a dedicated one does not exist,
// and pools command lists per queue family.
type Manager struct {
	dev   hal.Device
	pools map[rgtypes.QueueClass]*commandListPool
}

// New constructs a Manager over dev.
func New(dev hal.Device) *Manager {
	return &Manager{
		dev:   dev,
		pools: make(map[rgtypes.QueueClass]*commandListPool),
	}
}

// Queue returns dev's queue for class, falling back to the graphics
// queue when dev exposes no dedicated queue of that class.
func (m *Manager) Queue(class rgtypes.QueueClass) hal.Queue {
	if q := m.dev.Queue(class); q != nil {
		return q
	}
	return m.dev.Queue(rgtypes.QueueClassGraphics)
}

func (m *Manager) poolFor(class rgtypes.QueueClass) *commandListPool {
	p, ok := m.pools[class]
	if !ok {
		p = &commandListPool{dev: m.dev, class: class}
		m.pools[class] = p
	}
	return p
}

// AcquireCommandList acquires a command list for class's queue family
// from the pool, beginning recording on it.
func (m *Manager) AcquireCommandList(class rgtypes.QueueClass) (hal.CommandList, error) {
	cl, err := m.poolFor(class).acquire()
	if err != nil {
		return nil, err
	}
	if err := cl.Begin(); err != nil {
		return nil, fmt.Errorf("workqueue: begin command list: %w", err)
	}
	return cl, nil
}

// Submit ends recording on list and submits it to class's queue,
// waiting on waits, signalling signals, and signalling fence once the
// GPU work completes.
func (m *Manager) Submit(class rgtypes.QueueClass, list hal.CommandList, waits, signals []hal.Semaphore, fence hal.Fence) error {
	if err := list.End(); err != nil {
		return fmt.Errorf("workqueue: end command list: %w", err)
	}
	queue := m.Queue(class)
	if err := queue.Submit(list, waits, signals, fence); err != nil {
		return fmt.Errorf("workqueue: submit: %w", err)
	}
	return nil
}

// Present presents imageIndex on surface after waiting on waits, using
// the primary graphics queue (presentation is always issued on the
// graphics queue regardless of which queue recorded the frame's work).
func (m *Manager) Present(surface hal.Surface, imageIndex uint32, waits []hal.Semaphore) error {
	queue := m.Queue(rgtypes.QueueClassGraphics)
	if err := surface.Present(queue, imageIndex, waits); err != nil {
		return fmt.Errorf("workqueue: present: %w", err)
	}
	return nil
}

// ResetFrame returns every command list acquired this frame to its
// pool, ready for reuse next frame. Callers invoke this once per frame
// after the frame's submissions have been issued.
func (m *Manager) ResetFrame() {
	for _, p := range m.pools {
		p.resetFrame()
	}
}
