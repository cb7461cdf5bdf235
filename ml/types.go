// types.go - Datentypen und Konstanten fuer Tensor-Elemente
// Dieses Modul definiert grundlegende Typen wie DType und Elementgroessen.
package ml

// DType represents the data type of tensor elements.
type DType int

const (
	DTypeOther DType = iota
	DTypeF32
	DTypeF16
	DTypeBF16
	DTypeI32
)

// SizeOf returns the size of one element of the given type in bytes.
func SizeOf(dtype DType) int {
	switch dtype {
	case DTypeF32, DTypeI32:
		return 4
	case DTypeF16, DTypeBF16:
		return 2
	}
	return 0
}

func (d DType) String() string {
	switch d {
	case DTypeF32:
		return "float32"
	case DTypeF16:
		return "float16"
	case DTypeBF16:
		return "bfloat16"
	case DTypeI32:
		return "int32"
	}
	return "unknown"
}
