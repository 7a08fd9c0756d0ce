package usecase

import (
	"context"
	"io"
	"time"
)

// rateLimitedReader throttles reads to a fixed byte rate (§4.9
// bandwidth-cap requirement). golang.org/x/time/rate is not part of
// the dependency set this module draws on, and the throttling here is
// a simple per-chunk sleep rather than a general-purpose limiter, so
// it is hand-rolled rather than pulling in a new dependency for one
// call site.
type rateLimitedReader struct {
	ctx            context.Context
	r              io.Reader
	bytesPerSecond int64
	windowStart    time.Time
	windowBytes    int64
}

// NewRateLimitedReader wraps r so that reads through it are throttled
// to roughly bytesPerSecond. A non-positive rate disables throttling.
func NewRateLimitedReader(ctx context.Context, r io.Reader, bytesPerSecond int64) io.Reader {
	if bytesPerSecond <= 0 {
		return r
	}
	return &rateLimitedReader{ctx: ctx, r: r, bytesPerSecond: bytesPerSecond, windowStart: time.Now()}
}

func (rl *rateLimitedReader) Read(p []byte) (int, error) {
	if err := rl.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := rl.r.Read(p)
	if n <= 0 {
		return n, err
	}

	rl.windowBytes += int64(n)
	elapsed := time.Since(rl.windowStart)
	expected := time.Duration(float64(rl.windowBytes) / float64(rl.bytesPerSecond) * float64(time.Second))
	if expected > elapsed {
		select {
		case <-time.After(expected - elapsed):
		case <-rl.ctx.Done():
			return n, rl.ctx.Err()
		}
	}
	if elapsed > time.Second {
		rl.windowStart = time.Now()
		rl.windowBytes = 0
	}
	return n, err
}
