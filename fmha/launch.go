// launch.go - Zwei-Phasen-Protokoll gegen den Device-Kernel
//
// Dieses Modul enthaelt:
// - Kernel: Configure/Execute-Interface des externen Kernels
// - Sizing: Ergebnis der Configure-Phase
// - launch: Configure -> Counter-Reservierung -> Execute
package fmha

import (
	"github.com/KnightAsterial/cuda-shared-attention/ml"
	"github.com/KnightAsterial/cuda-shared-attention/philox"
)

// Sizing is the result of the configure phase.
type Sizing struct {
	// EltsPerThread is the number of random values each kernel thread
	// draws during execution. It sizes the counter reservation taken
	// from the shared generator before the execute phase.
	EltsPerThread uint64
}

// Kernel is the device-side fused attention kernel, driven in two phases.
// Configure performs no numeric work; it reports launch sizing for the
// given parameter block. Execute submits the computation onto the stream
// and returns without waiting for completion.
type Kernel interface {
	Configure(stream ml.Stream, params Params) (Sizing, error)
	Execute(stream ml.Stream, params Params) error
}

// launch drives the two-phase invocation. With dropout active, a counter
// range sized by the configure phase is reserved from gen and attached to
// the parameter block before execution; with dropout off the generator is
// never touched.
func launch(kernel Kernel, stream ml.Stream, gen *philox.Generator, params Params) (Params, error) {
	sizing, err := kernel.Configure(stream, params)
	if err != nil {
		return params, err
	}

	if params.Dropout.Keep < 1 {
		params.Philox = gen.Reserve(sizing.EltsPerThread)
	}

	return params, kernel.Execute(stream, params)
}
