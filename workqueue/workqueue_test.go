package workqueue

import (
	"testing"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/hal/software"
	"github.com/gogpu/rendergraph/rgtypes"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dev, err := software.Backend{}.CreateDevice()
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	return New(dev)
}

func TestAcquireCommandListBeginsRecording(t *testing.T) {
	m := newTestManager(t)
	cl, err := m.AcquireCommandList(rgtypes.QueueClassGraphics)
	if err != nil {
		t.Fatalf("AcquireCommandList() error = %v", err)
	}
	if cl == nil {
		t.Fatal("AcquireCommandList() returned nil list")
	}
	// End only succeeds on a list that is recording.
	if err := cl.End(); err != nil {
		t.Fatalf("End() error = %v, want nil on a freshly acquired (recording) list", err)
	}
}

func TestResetFramePoolsCommandLists(t *testing.T) {
	m := newTestManager(t)
	first, err := m.AcquireCommandList(rgtypes.QueueClassGraphics)
	if err != nil {
		t.Fatalf("AcquireCommandList() error = %v", err)
	}
	if err := first.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	m.ResetFrame()

	second, err := m.AcquireCommandList(rgtypes.QueueClassGraphics)
	if err != nil {
		t.Fatalf("AcquireCommandList() error = %v", err)
	}
	if first != second {
		t.Fatal("ResetFrame() did not hand back the pooled command list")
	}
}

func TestSubmitSignalsFence(t *testing.T) {
	dev, err := software.Backend{}.CreateDevice()
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	m := New(dev)

	cl, err := m.AcquireCommandList(rgtypes.QueueClassGraphics)
	if err != nil {
		t.Fatalf("AcquireCommandList() error = %v", err)
	}
	fence, err := dev.CreateFence()
	if err != nil {
		t.Fatalf("CreateFence() error = %v", err)
	}
	if err := m.Submit(rgtypes.QueueClassGraphics, cl, nil, nil, fence); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	done, err := dev.WaitFence(fence, 1)
	if err != nil {
		t.Fatalf("WaitFence() error = %v", err)
	}
	if !done {
		t.Fatal("WaitFence() = false after a synchronous software submit")
	}
}

func TestQueueFallsBackToGraphicsWhenClassUnavailable(t *testing.T) {
	dev, err := software.Backend{}.CreateDevice()
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	m := New(dev)
	// The software backend always exposes a dedicated transfer queue,
	// so the plain device exercises the pass-through path.
	if q := m.Queue(rgtypes.QueueClassTransfer); q == nil {
		t.Fatal("Queue(Transfer) = nil")
	}

	// Wrapped so that it reports no transfer queue, the same device
	// must hand back the graphics queue instead.
	fallback := New(noTransferDevice{dev})
	q := fallback.Queue(rgtypes.QueueClassTransfer)
	if q == nil || q.Class() != rgtypes.QueueClassGraphics {
		t.Fatalf("Queue(Transfer) without a transfer queue = %v, want the graphics queue", q)
	}
}

// noTransferDevice wraps a hal.Device and reports no dedicated transfer
// queue.
type noTransferDevice struct{ hal.Device }

func (d noTransferDevice) Queue(class rgtypes.QueueClass) hal.Queue {
	if class == rgtypes.QueueClassTransfer {
		return nil
	}
	return d.Device.Queue(class)
}
