package pagination

// Params represents page-based pagination input from a caller.
type Params struct {
	Page  int // 1-based page number
	Limit int // Items per page
}

// Window is the limit/offset pair handed to storage queries.
// A zero Limit means the whole result set; Offset is then ignored.
type Window struct {
	Limit  int
	Offset int
}

// Unbounded is the window that returns every matching row.
var Unbounded = Window{}

// IsBounded reports whether the window truncates the result set.
func (w Window) IsBounded() bool {
	return w.Limit > 0
}

// EffectiveOffset returns the offset storage must apply.
// Without a limit the offset has no effect.
func (w Window) EffectiveOffset() int {
	if !w.IsBounded() || w.Offset < 0 {
		return 0
	}
	return w.Offset
}

// Window converts page-based params into a storage window.
func (p Params) Window() Window {
	return Window{
		Limit:  p.Limit,
		Offset: CalculateOffset(p.Page, p.Limit),
	}
}
