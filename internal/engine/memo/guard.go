package memo

// Guard detects re-entrant computation within a single query. It is not safe
// for concurrent use: each query owns its Guard and threads it through every
// nested call it makes.
//
// Besides blocking re-entry, the guard tracks whether a result was computed
// while one of its callers was short-circuited. Such a result depends on an
// incomplete value and must not be memoized (see Frame.Cacheable).
type Guard[K comparable] struct {
	inflight map[K]int // key -> stack depth
	depth    int
	// lowest stack depth whose computation was short-circuited, or -1
	skippedAt int
	skips     int
}

func NewGuard[K comparable]() *Guard[K] {
	return &Guard[K]{inflight: make(map[K]int), skippedAt: -1}
}

// Frame is an active computation acquired from Enter.
type Frame[K comparable] struct {
	g     *Guard[K]
	key   K
	depth int
	done  bool
}

// Enter marks key as being computed. ok is false when key is already in
// flight further up the stack; the caller must then return "no result".
// The returned frame must be released exactly once, normally with defer.
func (g *Guard[K]) Enter(key K) (f *Frame[K], ok bool) {
	if d, busy := g.inflight[key]; busy {
		if g.skippedAt < 0 || d < g.skippedAt {
			g.skippedAt = d
		}
		g.skips++
		return nil, false
	}
	g.depth++
	g.inflight[key] = g.depth
	return &Frame[K]{g: g, key: key, depth: g.depth}, true
}

// InFlight reports whether key is currently being computed.
func (g *Guard[K]) InFlight(key K) bool {
	_, busy := g.inflight[key]
	return busy
}

// Skips returns how many re-entrant calls were short-circuited so far.
func (g *Guard[K]) Skips() int { return g.skips }

// Cacheable reports whether the frame's result is complete: no computation
// strictly above it on the stack was short-circuited while it ran.
func (f *Frame[K]) Cacheable() bool {
	return f.g.skippedAt < 0 || f.g.skippedAt >= f.depth
}

// Release ends the frame. Releasing twice is a no-op.
func (f *Frame[K]) Release() {
	if f == nil || f.done {
		return
	}
	f.done = true
	g := f.g
	delete(g.inflight, f.key)
	if g.skippedAt >= f.depth {
		// The cycle closed at or below this frame.
		g.skippedAt = -1
	}
	g.depth = f.depth - 1
}
