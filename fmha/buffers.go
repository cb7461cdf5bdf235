// buffers.go - Bereitstellung der Launch-Puffer
//
// Dieses Modul enthaelt:
// - PlanBuffers: Liste der Puffer fuer eine Batch-Geometrie
// - provisionBuffers: Allokation und optionale Vor-Initialisierung
package fmha

import (
	"github.com/chewxy/math32"

	"github.com/KnightAsterial/cuda-shared-attention/ml"
)

// BufferSpec describes one buffer the forward pass will allocate.
type BufferSpec struct {
	Name  string
	DType ml.DType
	Shape []int
}

// Bytes is the allocation size of the buffer.
func (s BufferSpec) Bytes() int {
	n := ml.SizeOf(s.DType)
	for _, dim := range s.Shape {
		n *= dim
	}
	return n
}

// PlanBuffers lists the buffers a forward call provisions for the given
// batch geometry. Loop mode adds two float32 scratch accumulators that
// hold the per-tile-pass partial sums at higher precision than the
// storage type; summing many tiles in the storage precision would
// accumulate rounding error. Probability capture adds a buffer quadratic
// in the tile bound, for debugging and validation only.
func PlanBuffers(dtype ml.DType, batch, total, heads, headSize int, tiling Tiling, captureProbs bool) []BufferSpec {
	specs := []BufferSpec{
		{"ctx", dtype, []int{total, heads, headSize}},
		{"ctx2", dtype, []int{total, heads, headSize}},
	}

	if tiling.Loop {
		specs = append(specs,
			BufferSpec{"o_tmp", ml.DTypeF32, []int{total, heads, headSize}},
			BufferSpec{"o2_tmp", ml.DTypeF32, []int{total, heads, headSize}},
		)
	}

	specs = append(specs, BufferSpec{"softmax_lse", ml.DTypeF32, []int{batch, heads, tiling.SeqLen}})

	if captureProbs {
		specs = append(specs, BufferSpec{"s", dtype, []int{batch, heads, tiling.SeqLen, tiling.SeqLen}})
	}

	return specs
}

type buffers struct {
	ctx, ctx2    ml.Tensor
	oTmp, o2Tmp  ml.Tensor // loop mode only
	softmaxLSE   ml.Tensor
	s            ml.Tensor // probability capture only
}

// provisionBuffers allocates the buffers from PlanBuffers. With zero set,
// every buffer is zero-filled except softmax_lse, which is filled with
// -inf, the identity for log-sum-exp accumulation: the first real
// contribution determines the running value unchanged by the placeholder.
func provisionBuffers(alloc ml.Allocator, dtype ml.DType, batch, total, heads, headSize int, tiling Tiling, zero, captureProbs bool) (*buffers, error) {
	var bufs buffers
	for _, spec := range PlanBuffers(dtype, batch, total, heads, headSize, tiling, captureProbs) {
		t, err := alloc.Empty(spec.DType, spec.Shape...)
		if err != nil {
			return nil, err
		}

		if zero {
			fill := float32(0)
			if spec.Name == "softmax_lse" {
				fill = math32.Inf(-1)
			}
			if err := alloc.Fill(t, fill); err != nil {
				return nil, err
			}
		}

		switch spec.Name {
		case "ctx":
			bufs.ctx = t
		case "ctx2":
			bufs.ctx2 = t
		case "o_tmp":
			bufs.oTmp = t
		case "o2_tmp":
			bufs.o2Tmp = t
		case "softmax_lse":
			bufs.softmaxLSE = t
		case "s":
			bufs.s = t
		}
	}

	return &bufs, nil
}
