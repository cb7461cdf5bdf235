// tile_test.go - Unit Tests fuer das Sequenzlaengen-Bucketing
package fmha

import "testing"

func TestChooseTiling(t *testing.T) {
	tests := []struct {
		name       string
		maxSeqLen  int
		headSize   int
		wantSeqLen int
		wantBase   int
		wantLoop   bool
	}{
		{"single token", 1, 64, 128, 256, false},
		{"exactly the small tile", 128, 64, 128, 256, false},
		{"just past the small tile", 129, 64, 256, 256, false},
		{"exactly the base tile", 256, 64, 256, 256, false},
		{"multi pass", 300, 64, 512, 256, true},
		{"exact multiple", 512, 64, 512, 256, true},
		{"large", 1000, 32, 1024, 256, true},
		{"head size 128 short", 100, 128, 128, 128, false},
		{"head size 128 two tiles", 200, 128, 256, 128, true},
		{"head size 128 long", 300, 128, 384, 128, true},
		{"head size 16", 300, 16, 512, 256, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChooseTiling(tt.maxSeqLen, tt.headSize)
			if got.SeqLen != tt.wantSeqLen || got.Base != tt.wantBase || got.Loop != tt.wantLoop {
				t.Errorf("ChooseTiling(%d, %d) = %+v, want seqLen=%d base=%d loop=%v",
					tt.maxSeqLen, tt.headSize, got, tt.wantSeqLen, tt.wantBase, tt.wantLoop)
			}
		})
	}
}

func TestChooseTilingBounds(t *testing.T) {
	for _, headSize := range []int{16, 32, 64, 128} {
		for maxSeqLen := 1; maxSeqLen <= 2048; maxSeqLen++ {
			got := ChooseTiling(maxSeqLen, headSize)

			switch {
			case maxSeqLen <= 128:
				if got.SeqLen != 128 || got.Loop != (got.SeqLen > got.Base) {
					t.Fatalf("maxSeqLen=%d headSize=%d: got %+v, want seqLen=128", maxSeqLen, headSize, got)
				}
			case maxSeqLen <= 256:
				if got.SeqLen != 256 {
					t.Fatalf("maxSeqLen=%d headSize=%d: got seqLen=%d, want 256", maxSeqLen, headSize, got.SeqLen)
				}
			default:
				if got.SeqLen%got.Base != 0 {
					t.Fatalf("maxSeqLen=%d headSize=%d: seqLen=%d is not a multiple of base %d", maxSeqLen, headSize, got.SeqLen, got.Base)
				}
				if got.SeqLen < maxSeqLen || got.SeqLen-maxSeqLen >= got.Base {
					t.Fatalf("maxSeqLen=%d headSize=%d: seqLen=%d is not the smallest padded bound", maxSeqLen, headSize, got.SeqLen)
				}
				if !got.Loop {
					t.Fatalf("maxSeqLen=%d headSize=%d: expected loop mode", maxSeqLen, headSize)
				}
			}

			if got.Loop != (got.SeqLen > got.Base) {
				t.Fatalf("maxSeqLen=%d headSize=%d: loop flag %v inconsistent with seqLen=%d base=%d",
					maxSeqLen, headSize, got.Loop, got.SeqLen, got.Base)
			}
		}
	}
}
