// forward.go - Einstiegspunkt fuer den Attention-Forward-Pass
//
// Dieses Modul enthaelt:
// - Engine: bindet Kernel, Device, Stream und Allocator
// - Forward: Validierung -> Bucketing -> Puffer -> Parameter -> Launch
// - validate: alle Vorbedingungen vor jeglicher Device-Arbeit
package fmha

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/KnightAsterial/cuda-shared-attention/envconfig"
	"github.com/KnightAsterial/cuda-shared-attention/ml"
	"github.com/KnightAsterial/cuda-shared-attention/philox"
)

var (
	ErrUnsupportedDevice   = errors.New("device compute capability not supported by the fused attention kernel")
	ErrTensorNotOnDevice   = errors.New("tensor is not resident on the device")
	ErrTensorNotContiguous = errors.New("tensor is not contiguous")
	ErrInvalidShape        = errors.New("unexpected tensor shape")
	ErrInvalidHeadSize     = errors.New("head size must be one of 16, 32, 64, 128")
	ErrInvalidBatch        = errors.New("batch size must be positive")
	ErrInvalidDropout      = errors.New("dropout probability out of range")
	ErrInvalidSeqOffsets   = errors.New("malformed sequence offsets")
)

// supported head sizes of the compiled kernel
func validHeadSize(d int) bool {
	return d == 16 || d == 32 || d == 64 || d == 128
}

// Engine binds the attention kernel to a device, a stream and an
// allocator. One Forward call is one forward computation; the engine
// itself holds no per-call state and may be shared across goroutines.
type Engine struct {
	Device ml.DeviceInfo
	Stream ml.Stream
	Alloc  ml.Allocator
	Kernel Kernel

	// Generator supplies dropout counter ranges. Nil selects the
	// process-wide shared generator.
	Generator *philox.Generator
}

// ForwardOptions are the scalar knobs of a forward call.
type ForwardOptions struct {
	// DropoutP is the dropout probability, in [0, 1).
	DropoutP float32

	// MaxSeqLen is the longest sequence in the batch. It is quantized
	// up to the kernel's tile bound.
	MaxSeqLen int

	// SoftmaxScale is applied in the first matmul. See
	// DefaultSoftmaxScale; it is not recomputed from the head size.
	SoftmaxScale float32

	// ZeroBuffers pre-zeroes outputs and scratch and fills the
	// log-sum-exp buffer with -inf before submission.
	ZeroBuffers bool

	// Causal restricts each query to non-future key positions.
	Causal bool

	// CaptureProbs materializes the full attention probability matrix.
	// Debug and validation only; the buffer is quadratic in the tile
	// bound.
	CaptureProbs bool

	// Generator overrides the engine's generator for this call.
	Generator *philox.Generator
}

// Output holds the buffers produced by a forward call. Ownership
// transfers to the caller; the data becomes valid once the stream
// reaches the submitted work.
type Output struct {
	Ctx        ml.Tensor
	Ctx2       ml.Tensor
	SoftmaxLSE ml.Tensor

	// Probs is nil unless CaptureProbs was set.
	Probs ml.Tensor
}

// Forward runs one fused attention forward computation over a packed
// variable-length batch.
//
// qkv is the packed input, [total, heads, 4, head_size], where the 4 axis
// holds query, key, value and a reserved slot. seqOffsets is int32 of
// length batch+1, starting at 0 and ending at total; consecutive
// differences are the per-sequence lengths.
func (e *Engine) Forward(qkv, seqOffsets ml.Tensor, opts ForwardOptions) (*Output, error) {
	batch, total, heads, headSize, err := e.validate(qkv, seqOffsets, opts)
	if err != nil {
		return nil, err
	}

	dtype := qkv.DType()
	tiling := ChooseTiling(opts.MaxSeqLen, headSize)

	id := uuid.NewString()
	slog.Debug("attention forward", "id", id, "batch", batch, "total", total,
		"heads", heads, "head_size", headSize, "dtype", dtype,
		"seq_len", tiling.SeqLen, "loop", tiling.Loop,
		"dropout", opts.DropoutP, "causal", opts.Causal)

	zero := opts.ZeroBuffers || envconfig.ZeroBuffers()
	bufs, err := provisionBuffers(e.Alloc, dtype, batch, total, heads, headSize, tiling, zero, opts.CaptureProbs)
	if err != nil {
		return nil, fmt.Errorf("provisioning launch buffers: %w", err)
	}

	params, err := buildParams(dtype, batch, tiling.SeqLen, heads, headSize, qkv, seqOffsets, bufs, opts.DropoutP, opts.SoftmaxScale, opts.Causal)
	if err != nil {
		return nil, err
	}

	gen := opts.Generator
	if gen == nil {
		gen = e.Generator
	}
	if gen == nil {
		gen = philox.Shared()
	}

	params, err = launch(e.Kernel, e.Stream, gen, params)
	if err != nil {
		return nil, fmt.Errorf("launching attention kernel: %w", err)
	}

	slog.Debug("attention kernel submitted", "id", id, "params", params,
		"philox_offset", params.Philox.Offset)

	return &Output{
		Ctx:        bufs.ctx,
		Ctx2:       bufs.ctx2,
		SoftmaxLSE: bufs.softmaxLSE,
		Probs:      bufs.s,
	}, nil
}

// validate checks every caller-contract precondition before any buffer is
// allocated or device work issued. Failures are fatal for the call and
// leave no partial device work pending.
func (e *Engine) validate(qkv, seqOffsets ml.Tensor, opts ForwardOptions) (batch, total, heads, headSize int, err error) {
	if e.Device.ComputeMajor != 8 || e.Device.ComputeMinor < 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w (compute %s)", ErrUnsupportedDevice, e.Device.Compute())
	}

	if !qkv.OnDevice() {
		return 0, 0, 0, 0, fmt.Errorf("%w (qkv)", ErrTensorNotOnDevice)
	}
	if !seqOffsets.OnDevice() {
		return 0, 0, 0, 0, fmt.Errorf("%w (seq offsets)", ErrTensorNotOnDevice)
	}
	if !qkv.Contiguous() {
		return 0, 0, 0, 0, fmt.Errorf("%w (qkv)", ErrTensorNotContiguous)
	}
	if !seqOffsets.Contiguous() {
		return 0, 0, 0, 0, fmt.Errorf("%w (seq offsets)", ErrTensorNotContiguous)
	}

	if len(seqOffsets.Shape()) != 1 || seqOffsets.DType() != ml.DTypeI32 {
		return 0, 0, 0, 0, fmt.Errorf("%w: seq offsets must be rank-1 int32, got %s %v", ErrInvalidShape, seqOffsets.DType(), seqOffsets.Shape())
	}
	if len(qkv.Shape()) != 4 || qkv.Dim(2) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("%w: qkv must be [total, heads, 4, head_size], got %v", ErrInvalidShape, qkv.Shape())
	}
	if dt := qkv.DType(); dt != ml.DTypeF16 && dt != ml.DTypeBF16 {
		return 0, 0, 0, 0, fmt.Errorf("%w: qkv must be float16 or bfloat16, got %s", ErrInvalidShape, dt)
	}

	batch = seqOffsets.Dim(0) - 1
	total = qkv.Dim(0)
	heads = qkv.Dim(1)
	headSize = qkv.Dim(3)

	if batch <= 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w (got %d)", ErrInvalidBatch, batch)
	}
	if !validHeadSize(headSize) {
		return 0, 0, 0, 0, fmt.Errorf("%w (got %d)", ErrInvalidHeadSize, headSize)
	}
	if opts.DropoutP < 0 || opts.DropoutP >= 1 {
		return 0, 0, 0, 0, fmt.Errorf("%w: %v not in [0, 1)", ErrInvalidDropout, opts.DropoutP)
	}
	if opts.MaxSeqLen <= 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: max sequence length %d", ErrInvalidShape, opts.MaxSeqLen)
	}

	offsets := seqOffsets.Ints()
	if offsets[0] != 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: first offset is %d, want 0", ErrInvalidSeqOffsets, offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return 0, 0, 0, 0, fmt.Errorf("%w: offsets decrease at index %d", ErrInvalidSeqOffsets, i)
		}
	}
	if int(offsets[batch]) != total {
		return 0, 0, 0, 0, fmt.Errorf("%w: last offset %d does not match %d total tokens", ErrInvalidSeqOffsets, offsets[batch], total)
	}

	return batch, total, heads, headSize, nil
}
