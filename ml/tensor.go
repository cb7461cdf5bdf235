// tensor.go - Tensor-Deskriptoren und Allocator-Interface
// Dieses Modul definiert das Tensor-Interface fuer Device-Speicher
// sowie das Allocator-Interface fuer die Puffer-Bereitstellung.
package ml

// DevicePtr is an opaque device memory address. The zero value means
// "no buffer" and is passed through to the kernel as a null pointer.
type DevicePtr uintptr

// Tensor describes a block of device memory with a shape, element type
// and strides. The orchestration layer only reads descriptors; it never
// touches element data except through Allocator.Fill.
type Tensor interface {
	DType() DType

	Shape() []int
	Dim(n int) int

	// Stride returns the distance between consecutive indices of
	// dimension n, in elements.
	Stride(n int) int

	// Elems is the total number of elements.
	Elems() int

	Contiguous() bool

	// OnDevice reports whether the data is resident in accelerator
	// memory. Host-backed reference tensors report true as well since
	// they stand in for device memory in tests.
	OnDevice() bool

	// Ptr is the base address handed to the kernel.
	Ptr() DevicePtr

	// Ints synchronizes the tensor to the host and returns its data as
	// int32 values. Only valid for DTypeI32 tensors; intended for small
	// index tensors such as sequence offsets.
	Ints() []int32

	// Floats synchronizes the tensor to the host and returns its data
	// converted to float32.
	Floats() []float32
}

// Allocator provisions tensors on a device. Placement and lifetime
// tracking belong to the implementation; callers only size and fill.
type Allocator interface {
	Empty(dtype DType, shape ...int) (Tensor, error)

	// Fill sets every element to value, converted to the tensor's
	// element type.
	Fill(t Tensor, value float32) error
}
