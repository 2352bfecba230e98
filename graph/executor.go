package graph

import (
	"fmt"

	"github.com/gogpu/rendergraph/device"
	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/rgtypes"
	"github.com/gogpu/rendergraph/workqueue"
)

// Graph is the compiled, executable form a Compiler produces. Execute
// is called once per frame; it recomputes which passes are active,
// re-sorts only when that set has changed since the last frame, plans
// and emits barriers per pass from last-known resource state, and
// finishes with an unconditional present-transition for every
// swapchain touched this frame.
type Graph struct {
	dev    *device.Device
	lib    *ResourceLibrary
	passes []*PassBuilder
	deps   [][]int
	active []bool
	order  []int
	states *stateTable

	wq    *workqueue.Manager
	fence handle.FenceHandle

	surfaceSync map[handle.RenderSurfaceHandle]surfaceSyncObjects
}

type surfaceSyncObjects struct {
	acquireSem handle.SemaphoreHandle
	renderSem  handle.SemaphoreHandle
}

// Bind attaches the workqueue manager Execute submits work through.
// Kept separate from Compile so a Compiler can produce a Graph before
// its device's workqueue exists.
func (g *Graph) Bind(wq *workqueue.Manager) {
	g.wq = wq
}

func (g *Graph) syncFor(surf handle.RenderSurfaceHandle) (surfaceSyncObjects, error) {
	if g.surfaceSync == nil {
		g.surfaceSync = make(map[handle.RenderSurfaceHandle]surfaceSyncObjects)
	}
	if s, ok := g.surfaceSync[surf]; ok {
		return s, nil
	}
	acquireSem, err := g.dev.CreateSemaphore()
	if err != nil {
		return surfaceSyncObjects{}, fmt.Errorf("graph: create acquire semaphore: %w", err)
	}
	renderSem, err := g.dev.CreateSemaphore()
	if err != nil {
		return surfaceSyncObjects{}, fmt.Errorf("graph: create render semaphore: %w", err)
	}
	s := surfaceSyncObjects{acquireSem: acquireSem, renderSem: renderSem}
	g.surfaceSync[surf] = s
	return s, nil
}

// resolveImage resolves a declared image ref to the device handle the
// resource library compiled it to. Swapchain usages do not go through
// here; planBarriers takes their image from the acquire result.
func (g *Graph) resolveImage(ref ImageRef) (handle.ImageHandle, error) {
	h, ok := g.lib.ResolveImage(ref)
	if !ok {
		return handle.Null[handle.ImageMarker](), fmt.Errorf("graph: image ref %v not resolved", ref)
	}
	return h, nil
}

func (g *Graph) resolveBuffer(ref BufferRef) (handle.BufferHandle, error) {
	h, ok := g.lib.ResolveBuffer(ref)
	if !ok {
		return handle.Null[handle.BufferMarker](), fmt.Errorf("graph: buffer ref %v not resolved", ref)
	}
	return h, nil
}

// frameFence lazily creates the fence Submit signals once this frame's
// work completes. A single fence is reused across frames: nothing here
// waits on a previous value, since the frames-in-flight deletion queue
// already governs how long a resource outlives its last use.
func (g *Graph) frameFence() (handle.FenceHandle, error) {
	if !g.fence.IsNull() {
		return g.fence, nil
	}
	f, err := g.dev.CreateFence()
	if err != nil {
		return handle.Null[handle.FenceMarker](), fmt.Errorf("graph: create frame fence: %w", err)
	}
	g.fence = f
	return f, nil
}

// Execute runs one frame of the graph: recompute the active set,
// re-sort if it changed, acquire every swapchain touched this frame,
// record every active pass's planned barriers and execute closure into
// a single command list on the primary queue, submit once, then
// transition and present every touched swapchain. Per spec section
// 4.8's scheduling model, the whole frame serialises to the primary
// queue; a pass's own declared queue class does not split recording
// across multiple command lists.
func (g *Graph) Execute() error {
	if g.wq == nil {
		return fmt.Errorf("graph: Execute called before Bind")
	}

	changed := false
	for i, p := range g.passes {
		a := p.isActive()
		if a != g.active[i] {
			changed = true
		}
		g.active[i] = a
	}
	if changed {
		order, err := toposort(g.deps, g.active)
		if err != nil {
			return err
		}
		g.order = order
	}

	touchedSwapchains := make([]handle.RenderSurfaceHandle, 0, 4)
	seen := make(map[handle.RenderSurfaceHandle]bool)
	for _, idx := range g.order {
		for _, su := range g.passes[idx].swapchains {
			if !seen[su.surface] {
				seen[su.surface] = true
				touchedSwapchains = append(touchedSwapchains, su.surface)
			}
		}
	}

	acquired := make(map[handle.RenderSurfaceHandle]device.AcquireResult, len(touchedSwapchains))
	var waits []hal.Semaphore
	for _, surf := range touchedSwapchains {
		sync, err := g.syncFor(surf)
		if err != nil {
			return err
		}
		sem, _ := g.dev.HALSemaphore(sync.acquireSem)
		res, err := g.dev.AcquireNextImage(surf, sem)
		if err != nil {
			return fmt.Errorf("graph: acquire surface %v: %w", surf, err)
		}
		acquired[surf] = res
		waits = append(waits, sem)
	}

	cl, err := g.wq.AcquireCommandList(rgtypes.QueueClassGraphics)
	if err != nil {
		return fmt.Errorf("graph: acquire frame command list: %w", err)
	}

	for _, idx := range g.order {
		pass := g.passes[idx]

		imageBarriers, bufferBarriers, srcStage, dstStage, err := g.planBarriers(pass, acquired)
		if err != nil {
			return fmt.Errorf("graph: pass %q: %w", pass.name, err)
		}
		if len(imageBarriers) > 0 || len(bufferBarriers) > 0 {
			cl.PipelineBarrier(imageBarriers, bufferBarriers, srcStage, dstStage)
		}

		if pass.execute != nil {
			pass.execute(cl)
		}
	}

	if len(touchedSwapchains) > 0 {
		g.emitPresentTransition(cl, touchedSwapchains, acquired)
	}

	var signals []hal.Semaphore
	for _, surf := range touchedSwapchains {
		sync := g.surfaceSync[surf]
		if sem, ok := g.dev.HALSemaphore(sync.renderSem); ok {
			signals = append(signals, sem)
		}
	}

	fence, err := g.frameFence()
	if err != nil {
		return err
	}
	halFence, _ := g.dev.HALFence(fence)
	if err := g.wq.Submit(rgtypes.QueueClassGraphics, cl, waits, signals, halFence); err != nil {
		return fmt.Errorf("graph: submit frame: %w", err)
	}

	g.dev.EndFrame()

	for _, surf := range touchedSwapchains {
		res := acquired[surf]
		sync := g.surfaceSync[surf]
		var presentWaits []hal.Semaphore
		if sem, ok := g.dev.HALSemaphore(sync.renderSem); ok {
			presentWaits = append(presentWaits, sem)
		}
		halSurf, _ := g.dev.HALSurface(surf)
		if err := g.wq.Present(halSurf, res.ImageIndex, presentWaits); err != nil {
			return fmt.Errorf("graph: present surface %v: %w", surf, err)
		}
	}

	g.wq.ResetFrame()
	return nil
}

// planBarriers computes the image and buffer barriers a single pass
// needs, advancing the state table as it goes. A barrier is emitted
// when an image's layout (a buffer's access mask) changes, or when the
// new use writes the resource even if nothing else changed; otherwise
// none is. Stage and access masks only accumulate into the pass's single
// combined barrier call alongside an actual transition, never on their
// own.
func (g *Graph) planBarriers(pass *PassBuilder, acquired map[handle.RenderSurfaceHandle]device.AcquireResult) ([]hal.ImageBarrier, []hal.BufferBarrier, rgtypes.PipelineStage, rgtypes.PipelineStage, error) {
	var imageBarriers []hal.ImageBarrier
	var bufferBarriers []hal.BufferBarrier
	var srcStage, dstStage rgtypes.PipelineStage

	for _, iu := range pass.images {
		imgHandle, err := g.resolveImage(iu.ref)
		if err != nil {
			return nil, nil, 0, 0, err
		}
		halImg, ok := g.dev.HALImage(imgHandle)
		if !ok {
			return nil, nil, 0, 0, fmt.Errorf("image %v has no backend object", imgHandle)
		}
		wantLayout := imageLayoutFor(iu.usage)
		wantStage := imageStageFor(iu.firstStage, iu.usage)
		wantAccess := imageAccessMaskFor(iu.usage, iu.access)

		last := g.states.image(imgHandle)
		if last.layout != wantLayout || isWriteAccess(wantAccess) {
			imageBarriers = append(imageBarriers, hal.ImageBarrier{
				Image:          halImg,
				SrcStage:       last.stage,
				DstStage:       wantStage,
				SrcAccess:      last.access,
				DstAccess:      wantAccess,
				OldLayout:      last.layout,
				NewLayout:      wantLayout,
				SrcQueueFamily: pass.class,
				DstQueueFamily: pass.class,
			})
			srcStage |= last.stage
			dstStage |= wantStage
		}
		g.states.setImage(imgHandle, imageState{stage: wantStage, access: wantAccess, layout: wantLayout})
	}

	for _, su := range pass.swapchains {
		res, ok := acquired[su.surface]
		if !ok {
			return nil, nil, 0, 0, fmt.Errorf("surface %v was not acquired this frame", su.surface)
		}
		halImg, ok := g.dev.HALImage(res.Image)
		if !ok {
			return nil, nil, 0, 0, fmt.Errorf("surface image %v has no backend object", res.Image)
		}
		wantLayout := imageLayoutFor(su.usage)
		wantStage := imageStageFor(rgtypes.StageInfer, su.usage)
		wantAccess := imageAccessMaskFor(su.usage, su.access)

		last := g.states.swapchain(su.surface)
		if last.layout != wantLayout || isWriteAccess(wantAccess) {
			imageBarriers = append(imageBarriers, hal.ImageBarrier{
				Image:          halImg,
				SrcStage:       last.stage,
				DstStage:       wantStage,
				SrcAccess:      last.access,
				DstAccess:      wantAccess,
				OldLayout:      last.layout,
				NewLayout:      wantLayout,
				SrcQueueFamily: pass.class,
				DstQueueFamily: pass.class,
			})
			srcStage |= last.stage
			dstStage |= wantStage
		}
		g.states.setSwapchain(su.surface, imageState{stage: wantStage, access: wantAccess, layout: wantLayout})
	}

	for _, bu := range pass.buffers {
		bufHandle, err := g.resolveBuffer(bu.ref)
		if err != nil {
			return nil, nil, 0, 0, err
		}
		halBuf, ok := g.dev.HALBuffer(bufHandle)
		if !ok {
			return nil, nil, 0, 0, fmt.Errorf("buffer %v has no backend object", bufHandle)
		}
		wantStage := bu.firstStage
		wantAccess := bufferAccessMaskFor(bu.usage, bu.access)

		last := g.states.buffer(bufHandle)
		if last.access != wantAccess || isWriteAccess(wantAccess) {
			bufferBarriers = append(bufferBarriers, hal.BufferBarrier{
				Buffer:         halBuf,
				SrcStage:       last.stage,
				DstStage:       wantStage,
				SrcAccess:      last.access,
				DstAccess:      wantAccess,
				SrcQueueFamily: pass.class,
				DstQueueFamily: pass.class,
			})
			srcStage |= last.stage
			dstStage |= wantStage
		}
		g.states.setBuffer(bufHandle, bufferState{stage: wantStage, access: wantAccess})
	}

	return imageBarriers, bufferBarriers, srcStage, dstStage, nil
}

// emitPresentTransition appends the final, unconditional present-layout
// transition for every swapchain touched this frame onto cl, in one
// combined barrier call, per spec section 4.8's closing step. It is
// folded into the frame's single command list rather than submitted on
// its own.
func (g *Graph) emitPresentTransition(cl hal.CommandList, surfaces []handle.RenderSurfaceHandle, acquired map[handle.RenderSurfaceHandle]device.AcquireResult) {
	var imageBarriers []hal.ImageBarrier
	var srcStage, dstStage rgtypes.PipelineStage
	for _, surf := range surfaces {
		res := acquired[surf]
		halImg, ok := g.dev.HALImage(res.Image)
		if !ok {
			continue
		}
		last := g.states.swapchain(surf)
		imageBarriers = append(imageBarriers, hal.ImageBarrier{
			Image:          halImg,
			SrcStage:       last.stage,
			DstStage:       rgtypes.StageBottomOfPipe,
			SrcAccess:      last.access,
			DstAccess:      rgtypes.AccessMaskNone,
			OldLayout:      last.layout,
			NewLayout:      rgtypes.ImageLayoutPresentSrc,
			SrcQueueFamily: rgtypes.QueueClassGraphics,
			DstQueueFamily: rgtypes.QueueClassGraphics,
		})
		srcStage |= last.stage
		dstStage |= rgtypes.StageBottomOfPipe
		g.states.setSwapchain(surf, imageState{stage: rgtypes.StageBottomOfPipe, access: rgtypes.AccessMaskNone, layout: rgtypes.ImageLayoutPresentSrc})
	}

	cl.PipelineBarrier(imageBarriers, nil, srcStage, dstStage)
}
