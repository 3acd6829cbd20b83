package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler lets through n out of every d events, in a fixed pattern.
type ratioSampler struct {
	ratio atomic.Pointer[[2]uint64]
	seen  atomic.Uint64
}

func newRatioSampler(n, d int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(n, d)
	return s
}

// Set replaces the ratio. A non-positive value disables sampling so every
// event passes.
func (s *ratioSampler) Set(n, d int) {
	s.seen.Store(0)
	if n <= 0 || d <= 0 {
		s.ratio.Store(nil)
		return
	}
	s.ratio.Store(&[2]uint64{uint64(min(n, d)), uint64(d)})
}

// Allow reports whether the next event is kept.
func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	if r == nil {
		return true
	}
	return (s.seen.Add(1)-1)%r[1] < r[0]
}

// parseRatio reads "n/d" or "d" (meaning 1/d). ok is false when s is
// malformed.
func parseRatio(s string) (n, d int, ok bool) {
	s = strings.TrimSpace(s)
	num, den, found := strings.Cut(s, "/")
	if !found {
		num, den = "1", s
	}
	n, err1 := strconv.Atoi(strings.TrimSpace(num))
	d, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return n, d, true
}
