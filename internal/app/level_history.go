package app

// LevelRing is a circular buffer of a channel's recent display levels.
type LevelRing struct {
	buf   []float64
	pos   int
	count int
}

// NewLevelRing creates a new circular buffer with the given capacity.
func NewLevelRing(capacity int) *LevelRing {
	if capacity < 1 {
		capacity = 1
	}
	return &LevelRing{
		buf: make([]float64, capacity),
	}
}

// Push adds a value to the ring buffer.
func (r *LevelRing) Push(val float64) {
	r.buf[r.pos] = val
	r.pos = (r.pos + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Values returns all stored values in chronological order.
func (r *LevelRing) Values() []float64 {
	if r.count == 0 {
		return nil
	}
	result := make([]float64, r.count)
	if r.count < len(r.buf) {
		copy(result, r.buf[:r.count])
	} else {
		start := r.pos
		n := copy(result, r.buf[start:])
		copy(result[n:], r.buf[:start])
	}
	return result
}
