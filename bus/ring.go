package bus

// wordRing buffers captured words between the capture engine and Drain.
// Pushes are all-or-nothing so a full ring drops whole frames and the
// stream never loses alignment. Callers serialize access externally.
type wordRing struct {
	buf  []uint32
	head int // index of the oldest word
	size int // words stored
}

func newWordRing(capacity int) *wordRing {
	return &wordRing{buf: make([]uint32, capacity)}
}

func (r *wordRing) Cap() int  { return len(r.buf) }
func (r *wordRing) Len() int  { return r.size }
func (r *wordRing) Free() int { return len(r.buf) - r.size }

// Push appends words in order. Returns false, storing nothing, when the
// ring lacks room for all of them.
func (r *wordRing) Push(words []uint32) bool {
	if len(words) > r.Free() {
		return false
	}
	tail := (r.head + r.size) % len(r.buf)
	n := copy(r.buf[tail:], words)
	copy(r.buf, words[n:])
	r.size += len(words)
	return true
}

// Pop moves up to len(dst) of the oldest words into dst.
func (r *wordRing) Pop(dst []uint32) int {
	n := len(dst)
	if n > r.size {
		n = r.size
	}
	m := copy(dst[:n], r.buf[r.head:])
	copy(dst[m:n], r.buf)
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
	return n
}
