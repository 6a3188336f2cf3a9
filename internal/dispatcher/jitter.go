package dispatcher

import (
	"time"

	"github.com/codes-sim/mpi-replay/internal/rng"
)

// DefaultNoise is the exponential mean used for self-scheduling jitter
// unless an LP overrides it.
const DefaultNoise = 5.0

// jitterDelay computes lookahead + 0.1 + Exp(noise), per §4.4, consuming
// one RNG draw. The "0.1" constant is interpreted as 100 nanoseconds, a
// lookahead-scale epsilon consistent with the sub-microsecond lookaheads
// typical of interconnect models.
func jitterDelay(lookahead time.Duration, stream *rng.Stream, noise float64) time.Duration {
	draw := stream.Exp(noise)
	return lookahead + 100*time.Nanosecond + time.Duration(draw*float64(time.Nanosecond))
}
