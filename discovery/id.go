package discovery

import (
	"math/rand/v2"
	"os"
	"time"
)

// newRequestID returns a non-negative pseudo-random identifier for one discovery
// round. The seed mixes the clock with the pid so concurrent requesters on one
// host pick different ids; collisions across hosts are not detected.
func newRequestID() int32 {
	src := rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid()))
	return rand.New(src).Int32()
}
