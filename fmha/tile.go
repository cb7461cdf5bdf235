// tile.go - Sequenzlaengen-Bucketing
// Dieses Modul quantisiert die maximale Sequenzlaenge des Batches auf
// die Tile-Breite des Kernels und entscheidet Single-Pass vs. Loop-Modus.
package fmha

// Tiling is the launch granularity chosen for a batch. The kernel is
// compiled for fixed tile widths, so the working sequence length is
// padded up to a full multiple of the base tile.
type Tiling struct {
	// SeqLen is the padded working sequence length (the tile bound).
	SeqLen int

	// Base is the tile width the kernel processes per pass at this
	// head size.
	Base int

	// Loop means the sequence spans more than one tile and the kernel
	// sweeps key/value tiles in multiple passes, accumulating a running
	// output and log-sum-exp. The orchestrator provisions float32
	// scratch accumulators for the sweep.
	Loop bool
}

// ChooseTiling picks the tile bound for the given maximum sequence length
// and head size.
func ChooseTiling(maxSeqLen, headSize int) Tiling {
	base := 256
	if headSize == 128 {
		base = 128
	}

	var seqLen int
	switch {
	case maxSeqLen <= 128:
		seqLen = 128
	case maxSeqLen <= 256:
		seqLen = 256
	default:
		seqLen = (maxSeqLen + base - 1) / base * base
	}

	return Tiling{SeqLen: seqLen, Base: base, Loop: seqLen > base}
}
