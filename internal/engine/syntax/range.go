package syntax

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int
	End   int
}

// EmptyRange is the canonical empty range.
var EmptyRange = Range{}

// NewRange builds a range, collapsing inverted bounds to an empty range at start.
func NewRange(start, end int) Range {
	if end < start {
		return Range{Start: start, End: start}
	}
	return Range{Start: start, End: end}
}

func (r Range) Len() int { return r.End - r.Start }

func (r Range) IsEmpty() bool { return r.End <= r.Start }

func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// Shift moves the range by delta.
func (r Range) Shift(delta int) Range {
	return Range{Start: r.Start + delta, End: r.End + delta}
}

// Substring returns the part of text covered by r, clamped to text bounds.
func (r Range) Substring(text string) string {
	start, end := r.Start, r.End
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if end <= start {
		return ""
	}
	return text[start:end]
}
