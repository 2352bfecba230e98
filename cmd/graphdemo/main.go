// Command graphdemo builds a two-pass render graph — an offscreen
// color pass feeding a sampled pass — against the software HAL
// backend, executes a handful of frames, and prints how many barrier
// calls each pass recorded per frame. It exists to exercise device,
// workqueue, graph and hal end to end without a real GPU.
package main

import (
	"fmt"
	"os"

	"github.com/gogpu/rendergraph/device"
	"github.com/gogpu/rendergraph/graph"
	"github.com/gogpu/rendergraph/hal/software"
	"github.com/gogpu/rendergraph/rgconfig"
	"github.com/gogpu/rendergraph/rgtypes"
	"github.com/gogpu/rendergraph/workqueue"
)

const framesToRun = 4

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fmt.Println("=== Render Graph Demo: offscreen color -> sampled blit ===")

	dev, err := device.New(software.Backend{}, rgconfig.New(rgconfig.WithFramesInFlight(2)))
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	defer dev.Destroy()

	compiler := graph.NewCompiler(dev)
	res := compiler.Resources()

	offscreen := res.DeclareImage(rgtypes.ImageDescriptor{
		Label:  "offscreen-color",
		Width:  256,
		Height: 256,
		Format: rgtypes.FormatRGBA8Unorm,
	})

	colorBarriers := 0
	compiler.AddPass("fill", rgtypes.QueueClassGraphics, func(p *graph.PassBuilder) {
		p.ColorAttachment(offscreen, rgtypes.AccessWrite, graph.LoadOpClear, graph.StoreOpStore, graph.ClearValue{R: 0.1, G: 0.2, B: 0.3, A: 1})
		p.OnExecute(func(cr graph.CommandRecorder) {
			if cl, ok := cr.(*software.CommandList); ok {
				colorBarriers = len(cl.Barriers)
			}
			cr.ExecutePass(func() {})
		})
	})

	sampleBarriers := 0
	compiler.AddPass("blit", rgtypes.QueueClassGraphics, func(p *graph.PassBuilder) {
		p.SampledImage(offscreen, rgtypes.StageFragment, rgtypes.StageFragment)
		p.OnExecute(func(cr graph.CommandRecorder) {
			if cl, ok := cr.(*software.CommandList); ok {
				sampleBarriers = len(cl.Barriers) - colorBarriers
			}
			cr.ExecutePass(func() {})
		})
	})

	g, err := compiler.Compile()
	if err != nil {
		return fmt.Errorf("compile graph: %w", err)
	}
	g.Bind(workqueue.New(dev.HAL()))

	for frame := 0; frame < framesToRun; frame++ {
		if err := g.Execute(); err != nil {
			return fmt.Errorf("execute frame %d: %w", frame, err)
		}
		fmt.Printf("frame %d: fill barriers=%d blit barriers=%d\n", frame, colorBarriers, sampleBarriers)
	}

	return nil
}
