// Package philox - Counter-basierte RNG-Verwaltung
//
// Dieses Modul verwaltet einen prozessweiten counter-basierten
// Zufallsstrom und vergibt disjunkte Counter-Bereiche an nebenlaeufige
// Kernel-Launches:
// - Generator: Seed + laufender Counter-Offset hinter einem Mutex
// - Reserve: reserviert einen Counter-Bereich
// - Shared: prozessweiter Default-Generator
package philox

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/KnightAsterial/cuda-shared-attention/envconfig"
)

// State identifies a disjoint slice of a generator's pseudorandom stream:
// the seed and the counter offset at which a kernel starts drawing. It is
// attached to the kernel parameter block when dropout is active.
type State struct {
	Seed   uint64
	Offset uint64
}

// Generator hands out non-overlapping counter ranges from one stream.
// A single generator is shared by all concurrent forward calls so that
// their dropout masks are statistically independent without needing a
// generator per call.
type Generator struct {
	mu     sync.Mutex
	seed   uint64
	offset uint64
}

func New(seed uint64) *Generator {
	return &Generator{seed: seed}
}

// Reserve carves out n counters and returns the state token for the start
// of the reserved range. The generator emits four 32-bit words per counter
// tick, so n is rounded up to a multiple of 4. Safe for concurrent use;
// ranges returned to racing callers never overlap.
func (g *Generator) Reserve(n uint64) State {
	n = (n + 3) / 4 * 4

	g.mu.Lock()
	defer g.mu.Unlock()

	s := State{Seed: g.seed, Offset: g.offset}
	g.offset += n
	return s
}

var shared = sync.OnceValue(func() *Generator {
	seed := envconfig.Seed()
	if seed == 0 {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			panic(err)
		}
		seed = binary.LittleEndian.Uint64(buf[:])
	}
	return New(seed)
})

// Shared returns the process-wide generator, seeded from FMHA_SEED or,
// when unset, from the system entropy source.
func Shared() *Generator {
	return shared()
}
