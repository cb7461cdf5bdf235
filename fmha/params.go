// params.go - Aufbau des flachen Kernel-Parameter-Blocks
//
// Dieses Modul enthaelt:
// - Params: der Parameter-Block, den der Device-Kernel konsumiert
// - buildParams: Pointer, Strides, Skalen und Dropout-Kodierung setzen
// - EncodeDropout: Fixpunkt-Kodierung der Keep-Wahrscheinlichkeit
// - encodeAlpha: Skalen in die schmale Skalar-Darstellung des Kernels
package fmha

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/chewxy/math32"
	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/KnightAsterial/cuda-shared-attention/ml"
	"github.com/KnightAsterial/cuda-shared-attention/philox"
)

// The kernel accumulates in float32 regardless of the storage type.
const accType = ml.DTypeF32

// Dropout holds the keep-probability encodings the kernel consumes.
type Dropout struct {
	// Keep is the probability of keeping an element, 1 - p.
	Keep float32

	// KeepUint32 and KeepUint16 are Keep as fixed-point thresholds so
	// the kernel compares raw random bits against an integer instead of
	// converting them to floating point per element.
	KeepUint32 uint32
	KeepUint16 uint16

	// Rescale is 1/Keep, applied to surviving activations.
	Rescale float32
}

// EncodeDropout converts a dropout probability into the threshold form
// above. We want to round down since the kernel compares with <= instead
// of <.
func EncodeDropout(p float32) (Dropout, error) {
	if p < 0 || p >= 1 {
		return Dropout{}, fmt.Errorf("%w: %v not in [0, 1)", ErrInvalidDropout, p)
	}

	keep := 1 - p
	return Dropout{
		Keep:       keep,
		KeepUint32: uint32(math.Floor(float64(keep) * 4294967295.0)),
		KeepUint16: uint16(math.Floor(float64(keep) * 65535.0)),
		Rescale:    1 / keep,
	}, nil
}

// Params is the flat parameter block handed to the device kernel. It is
// built fresh per call and never mutated after the execute phase begins.
type Params struct {
	// Packed qkv input, [total, h, 4, d]; the 4 spans the query, key,
	// value and reserved slots.
	QKVPtr         ml.DevicePtr
	QKVStrideElts  int
	QKVStrideBytes int

	SeqOffsetsPtr ml.DevicePtr

	// Primary and secondary context outputs, [total, h, d].
	OPtr         ml.DevicePtr
	O2Ptr        ml.DevicePtr
	OStrideElts  int
	OStrideBytes int

	// Float32 scratch accumulators for the multi-pass sweep, null
	// outside loop mode.
	OTmpPtr  ml.DevicePtr
	O2TmpPtr ml.DevicePtr

	// S = softmax(P), materialized only when probability capture is
	// requested.
	SPtr         ml.DevicePtr
	SStrideBytes int

	SoftmaxLSEPtr ml.DevicePtr

	B int // batch size
	S int // tile bound
	H int // heads
	D int // head size

	// Scale constants for the two batched matmuls and the softmax, in
	// the kernel's narrow immediate form. ScaleBMM1F keeps the float
	// value alongside.
	ScaleBMM1F   float32
	ScaleBMM1    uint32
	ScaleSoftmax uint32
	ScaleBMM2    uint32

	Dropout      Dropout
	ScaleDropout uint32

	IsCausal bool

	// Philox is attached between the configure and execute phases when
	// dropout is active.
	Philox philox.State
}

func (p Params) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("b", p.B),
		slog.Int("s", p.S),
		slog.Int("h", p.H),
		slog.Int("d", p.D),
		slog.Bool("causal", p.IsCausal),
		slog.Any("keep_prob", p.Dropout.Keep),
	)
}

// DefaultSoftmaxScale is the conventional 1/sqrt(head_size) factor for
// the first matmul. Forward never recomputes the scale from the head
// size; callers pass it explicitly.
func DefaultSoftmaxScale(headSize int) float32 {
	return 1 / math32.Sqrt(float32(headSize))
}

// encodeAlpha packs a scale constant into the kernel's 32-bit immediate
// form for the given element type: half and bfloat16 values are
// replicated into both 16-bit lanes, float32 is the raw bit pattern.
func encodeAlpha(v float32, dtype ml.DType) uint32 {
	switch dtype {
	case ml.DTypeF16:
		bits := uint32(float16.Fromfloat32(v).Bits())
		return bits<<16 | bits
	case ml.DTypeBF16:
		bits := uint32(bfloat16.FromFloat32(v))
		return bits<<16 | bits
	default:
		return math.Float32bits(v)
	}
}

func ptrOf(t ml.Tensor) ml.DevicePtr {
	if t == nil {
		return 0
	}
	return t.Ptr()
}

func buildParams(dtype ml.DType, b, s, h, d int, qkv, seqOffsets ml.Tensor, bufs *buffers, dropoutP, softmaxScale float32, causal bool) (Params, error) {
	drop, err := EncodeDropout(dropoutP)
	if err != nil {
		return Params{}, err
	}

	return Params{
		QKVPtr:         qkv.Ptr(),
		QKVStrideElts:  h * 4 * d,
		QKVStrideBytes: h * 4 * d * ml.SizeOf(dtype),

		SeqOffsetsPtr: seqOffsets.Ptr(),

		OPtr:         bufs.ctx.Ptr(),
		O2Ptr:        bufs.ctx2.Ptr(),
		OStrideElts:  h * d,
		OStrideBytes: h * d * ml.SizeOf(dtype),

		OTmpPtr:  ptrOf(bufs.oTmp),
		O2TmpPtr: ptrOf(bufs.o2Tmp),

		SPtr:         ptrOf(bufs.s),
		SStrideBytes: b * h * s * ml.SizeOf(dtype),

		SoftmaxLSEPtr: bufs.softmaxLSE.Ptr(),

		B: b,
		S: s,
		H: h,
		D: d,

		ScaleBMM1F:   softmaxScale,
		ScaleBMM1:    encodeAlpha(softmaxScale, dtype),
		ScaleSoftmax: encodeAlpha(1, accType),
		ScaleBMM2:    encodeAlpha(1, dtype),

		Dropout:      drop,
		ScaleDropout: encodeAlpha(drop.Rescale, dtype),

		IsCausal: causal,
	}, nil
}
