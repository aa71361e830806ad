package liveness

// window is a fixed-capacity ring of recent samples; the oldest sample is
// evicted when a new one arrives at capacity.
type window struct {
	buf  []float64
	next int
	n    int
}

func newWindow(capacity int) *window {
	if capacity < 1 {
		capacity = 1
	}
	return &window{buf: make([]float64, capacity)}
}

func (w *window) push(v float64) {
	w.buf[w.next] = v
	w.next = (w.next + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}
}

func (w *window) mean() float64 {
	if w.n == 0 {
		return 0
	}
	var sum float64
	for i := range w.n {
		sum += w.buf[i]
	}
	return sum / float64(w.n)
}

func (w *window) len() int {
	return w.n
}
