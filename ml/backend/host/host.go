// Package host - Host-Speicher Referenz-Backend
//
// Dieses Modul implementiert ml.Allocator und ml.Tensor ueber Go-Slices.
// Es dient als Stellvertreter fuer Device-Speicher in Tests und beim
// CPU-Bring-up:
// - Backend: Allocator ueber Host-Speicher
// - tensor: zusammenhaengender, row-major Tensor
// - Fill: Wert-Konvertierung nach f32/f16/bf16/i32
package host

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"unsafe"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/KnightAsterial/cuda-shared-attention/ml"
)

// Backend allocates tensors in host memory.
type Backend struct{}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Empty(dtype ml.DType, shape ...int) (ml.Tensor, error) {
	if ml.SizeOf(dtype) == 0 {
		return nil, fmt.Errorf("unsupported dtype %s", dtype)
	}

	elems := 1
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("negative dimension in shape %v", shape)
		}
		elems *= dim
	}

	// Row-major strides, innermost dimension contiguous.
	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	return &tensor{
		dtype:   dtype,
		shape:   append([]int(nil), shape...),
		strides: strides,
		data:    make([]byte, elems*ml.SizeOf(dtype)),
	}, nil
}

func (b *Backend) Fill(t ml.Tensor, value float32) error {
	ht, ok := t.(*tensor)
	if !ok {
		return fmt.Errorf("tensor was not allocated by the host backend")
	}

	switch ht.dtype {
	case ml.DTypeF32:
		bits := math.Float32bits(value)
		for i := 0; i < ht.Elems(); i++ {
			binary.LittleEndian.PutUint32(ht.data[i*4:], bits)
		}
	case ml.DTypeF16:
		bits := float16.Fromfloat32(value).Bits()
		for i := 0; i < ht.Elems(); i++ {
			binary.LittleEndian.PutUint16(ht.data[i*2:], bits)
		}
	case ml.DTypeBF16:
		bits := uint16(bfloat16.FromFloat32(value))
		for i := 0; i < ht.Elems(); i++ {
			binary.LittleEndian.PutUint16(ht.data[i*2:], bits)
		}
	case ml.DTypeI32:
		for i := 0; i < ht.Elems(); i++ {
			binary.LittleEndian.PutUint32(ht.data[i*4:], uint32(int32(value)))
		}
	default:
		return fmt.Errorf("unsupported dtype %s", ht.dtype)
	}

	return nil
}

// FromInts creates an int32 tensor from a slice, e.g. sequence offsets.
func (b *Backend) FromInts(s []int32, shape ...int) (ml.Tensor, error) {
	t, err := b.Empty(ml.DTypeI32, shape...)
	if err != nil {
		return nil, err
	}

	ht := t.(*tensor)
	if len(s) != ht.Elems() {
		return nil, fmt.Errorf("data length %d does not match shape %v", len(s), shape)
	}
	for i, v := range s {
		binary.LittleEndian.PutUint32(ht.data[i*4:], uint32(v))
	}

	return ht, nil
}

type tensor struct {
	dtype   ml.DType
	shape   []int
	strides []int
	data    []byte
}

func (t *tensor) DType() ml.DType { return t.dtype }
func (t *tensor) Shape() []int    { return t.shape }
func (t *tensor) Dim(n int) int   { return t.shape[n] }
func (t *tensor) Stride(n int) int {
	return t.strides[n]
}

func (t *tensor) Elems() int {
	elems := 1
	for _, dim := range t.shape {
		elems *= dim
	}
	return elems
}

func (t *tensor) Contiguous() bool { return true }
func (t *tensor) OnDevice() bool   { return true }

func (t *tensor) Ptr() ml.DevicePtr {
	if len(t.data) == 0 {
		return 0
	}
	return ml.DevicePtr(uintptr(unsafe.Pointer(&t.data[0])))
}

func (t *tensor) Ints() []int32 {
	if t.dtype != ml.DTypeI32 {
		panic(fmt.Sprintf("Ints called on %s tensor", t.dtype))
	}

	i32s := make([]int32, t.Elems())
	for i := range i32s {
		i32s[i] = int32(binary.LittleEndian.Uint32(t.data[i*4:]))
	}
	return i32s
}

func (t *tensor) Floats() []float32 {
	f32s := make([]float32, t.Elems())
	switch t.dtype {
	case ml.DTypeF32:
		for i := range f32s {
			f32s[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.data[i*4:]))
		}
	case ml.DTypeF16:
		for i := range f32s {
			f32s[i] = float16.Frombits(binary.LittleEndian.Uint16(t.data[i*2:])).Float32()
		}
	case ml.DTypeBF16:
		for i := range f32s {
			f32s[i] = bfloat16.ToFloat32(bfloat16.BF16(binary.LittleEndian.Uint16(t.data[i*2:])))
		}
	case ml.DTypeI32:
		for i := range f32s {
			f32s[i] = float32(int32(binary.LittleEndian.Uint32(t.data[i*4:])))
		}
	default:
		panic(fmt.Sprintf("unsupported dtype for Floats: %s", t.dtype))
	}
	return f32s
}

// LogValue gibt einen slog.Value fuer Logging zurueck
func (t *tensor) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", t.dtype.String()),
		slog.Any("shape", t.shape),
		slog.Any("strides", t.strides),
	)
}
