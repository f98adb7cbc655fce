// Package transcode wires the classifier, ffmpeg argument builder, and
// process guard into the direct/piped transcoder (spec §4.2) and hosts
// the process-wide encoder-concurrency semaphore shared with the HLS
// session manager (spec §5).
package transcode

// Limiter bounds how many transcode-class operations (piped transcodes,
// HLS session starts, HLS seeks) may run at once. It is a try-acquire
// semaphore: the request path never blocks waiting for a permit, it
// fails fast so the caller can return 503.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter builds a Limiter with the given permit capacity.
func NewLimiter(maxConcurrent int) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Limiter{slots: make(chan struct{}, maxConcurrent)}
}

// TryAcquire claims one permit without blocking, returning false if the
// limiter is already at capacity.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a permit claimed by TryAcquire.
func (l *Limiter) Release() {
	select {
	case <-l.slots:
	default:
	}
}

// InUse reports the number of permits currently held, for diagnostics.
func (l *Limiter) InUse() int {
	return len(l.slots)
}
