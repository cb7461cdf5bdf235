// buffers_test.go - Unit Tests fuer die Puffer-Bereitstellung
package fmha

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/KnightAsterial/cuda-shared-attention/ml"
	"github.com/KnightAsterial/cuda-shared-attention/ml/backend/host"
)

func TestPlanBuffers(t *testing.T) {
	tests := []struct {
		name         string
		headSize     int
		maxSeqLen    int
		captureProbs bool
		want         []BufferSpec
	}{
		{
			// head_size=64, max_seq_len=300: base 256, bound 512, loop
			name:      "loop mode adds scratch accumulators",
			headSize:  64,
			maxSeqLen: 300,
			want: []BufferSpec{
				{"ctx", ml.DTypeF16, []int{10, 2, 64}},
				{"ctx2", ml.DTypeF16, []int{10, 2, 64}},
				{"o_tmp", ml.DTypeF32, []int{10, 2, 64}},
				{"o2_tmp", ml.DTypeF32, []int{10, 2, 64}},
				{"softmax_lse", ml.DTypeF32, []int{3, 2, 512}},
			},
		},
		{
			// head_size=128, max_seq_len=100: bound 128, single pass
			name:      "single pass has no scratch",
			headSize:  128,
			maxSeqLen: 100,
			want: []BufferSpec{
				{"ctx", ml.DTypeF16, []int{10, 2, 128}},
				{"ctx2", ml.DTypeF16, []int{10, 2, 128}},
				{"softmax_lse", ml.DTypeF32, []int{3, 2, 128}},
			},
		},
		{
			name:         "probability capture is quadratic in the bound",
			headSize:     128,
			maxSeqLen:    100,
			captureProbs: true,
			want: []BufferSpec{
				{"ctx", ml.DTypeF16, []int{10, 2, 128}},
				{"ctx2", ml.DTypeF16, []int{10, 2, 128}},
				{"softmax_lse", ml.DTypeF32, []int{3, 2, 128}},
				{"s", ml.DTypeF16, []int{3, 2, 128, 128}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiling := ChooseTiling(tt.maxSeqLen, tt.headSize)
			got := PlanBuffers(ml.DTypeF16, 3, 10, 2, tt.headSize, tiling, tt.captureProbs)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("PlanBuffers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBufferSpecBytes(t *testing.T) {
	spec := BufferSpec{"softmax_lse", ml.DTypeF32, []int{3, 2, 512}}
	if got := spec.Bytes(); got != 3*2*512*4 {
		t.Errorf("Bytes() = %d, want %d", got, 3*2*512*4)
	}
}

func TestProvisionBuffersZeroed(t *testing.T) {
	backend := host.New()
	tiling := ChooseTiling(300, 64)
	if !tiling.Loop {
		t.Fatal("expected loop mode for this geometry")
	}

	bufs, err := provisionBuffers(backend, ml.DTypeF16, 2, 8, 2, 64, tiling, true, true)
	if err != nil {
		t.Fatal(err)
	}

	for name, tensor := range map[string]ml.Tensor{
		"ctx": bufs.ctx, "ctx2": bufs.ctx2, "o_tmp": bufs.oTmp, "o2_tmp": bufs.o2Tmp, "s": bufs.s,
	} {
		for i, v := range tensor.Floats() {
			if v != 0 {
				t.Fatalf("%s[%d] = %v, want 0", name, i, v)
			}
		}
	}

	for i, v := range bufs.softmaxLSE.Floats() {
		if !math.IsInf(float64(v), -1) {
			t.Fatalf("softmax_lse[%d] = %v, want -inf", i, v)
		}
	}
}

func TestProvisionBuffersSinglePass(t *testing.T) {
	backend := host.New()
	tiling := ChooseTiling(100, 128)

	bufs, err := provisionBuffers(backend, ml.DTypeF16, 2, 8, 2, 128, tiling, false, false)
	if err != nil {
		t.Fatal(err)
	}

	if bufs.oTmp != nil || bufs.o2Tmp != nil {
		t.Error("single pass must not allocate scratch accumulators")
	}
	if bufs.s != nil {
		t.Error("probability buffer allocated without capture")
	}
	if bufs.ctx == nil || bufs.ctx2 == nil || bufs.softmaxLSE == nil {
		t.Error("missing required buffers")
	}

	if diff := cmp.Diff([]int{2, 2, 128}, bufs.softmaxLSE.Shape()); diff != "" {
		t.Errorf("softmax_lse shape mismatch (-want +got):\n%s", diff)
	}
}
