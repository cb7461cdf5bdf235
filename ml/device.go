// device.go
// Dieses Modul enthaelt die DeviceInfo-Struktur und den Stream-Typ
// fuer die Uebergabe von Geraete-Eigenschaften und Execution-Queues.
package ml

import "strconv"

// DeviceInfo describes the accelerator a kernel will run on.
type DeviceInfo struct {
	// Name is the name of the device as labeled by the backend. It
	// may not be persistent across instances of the runner.
	Name string `json:"name"`

	// TotalMemory is the total amount of memory on the device
	TotalMemory uint64 `json:"total_memory"`

	// FreeMemory is the amount of memory currently available on the device
	FreeMemory uint64 `json:"free_memory,omitempty"`

	// ComputeMajor is the major version of capabilities of the device
	// if unsupported by the backend, -1 will be returned
	ComputeMajor int

	// ComputeMinor is the minor version of capabilities of the device
	// if unsupported by the backend, -1 will be returned
	ComputeMinor int
}

func (d DeviceInfo) Compute() string {
	return strconv.Itoa(d.ComputeMajor) + "." + strconv.Itoa(d.ComputeMinor)
}

// Stream is a caller-owned execution queue handle. Work submitted onto a
// stream runs asynchronously in FIFO order; completion visibility belongs
// to the code that owns the stream, not to this layer.
type Stream uintptr
