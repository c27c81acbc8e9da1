// Package batch turns one template into the prompts and seeds of an image
// batch and hands them to a Renderer.
//
// Each requested output gets its own prompt from an independent generator
// fork, so outputs may be generated concurrently without changing results:
//
//	orch := batch.New(gen, batch.WithConcurrency(8))
//	res, err := orch.Run(ctx, batch.Request{
//	    Template:  "a {cat|dog} in __places__",
//	    Count:     6,
//	    BatchSize: 4,
//	    Seed:      1234,
//	}, renderer)
//
// The plan above carries six prompts, seeds 1234..1239 and two batches.
package batch
