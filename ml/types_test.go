package ml

import "testing"

func TestSizeOf(t *testing.T) {
	tests := []struct {
		dtype DType
		want  int
	}{
		{DTypeF32, 4},
		{DTypeF16, 2},
		{DTypeBF16, 2},
		{DTypeI32, 4},
		{DTypeOther, 0},
	}

	for _, tt := range tests {
		if got := SizeOf(tt.dtype); got != tt.want {
			t.Errorf("SizeOf(%s) = %d, want %d", tt.dtype, got, tt.want)
		}
	}
}
