package gallery

// Direction names a discrete cursor movement.
type Direction string

const (
	// DirectionNext moves the cursor one position forward.
	DirectionNext Direction = "next"
	// DirectionPrevious moves the cursor one position backward.
	DirectionPrevious Direction = "previous"
)

// MoveCursor moves the preview cursor by one position over the current
// ordered sequence and returns the new position.
//
// The cursor clamps at the boundaries: previous at index 0 and next at
// the last index are no-ops. There is no wraparound. Movement always
// operates on the current sequence; any refresh, deletion, or re-sort
// is visible to the next call.
func (ix *Index) MoveCursor(dir Direction) int {
	if len(ix.entries) == 0 {
		ix.cursor = -1
		return ix.cursor
	}

	switch dir {
	case DirectionNext:
		if ix.cursor < len(ix.entries)-1 {
			ix.cursor++
		}
	case DirectionPrevious:
		if ix.cursor > 0 {
			ix.cursor--
		}
	}

	ix.cursor = clamp(ix.cursor, 0, len(ix.entries)-1)
	return ix.cursor
}
