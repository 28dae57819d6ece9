package queue

// RepeatMode governs navigation at the edges of the play order.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota // Stop at the edges
	RepeatOne                    // Repeat the current item indefinitely
	RepeatAll                    // Wrap around at the edges
)

// String returns the string representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// ParseRepeatMode converts a string to a RepeatMode.
// Unknown values map to RepeatNone.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "one":
		return RepeatOne
	case "all":
		return RepeatAll
	default:
		return RepeatNone
	}
}

// Cycle returns the next repeat mode in none -> one -> all -> none order.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatOne
	case RepeatOne:
		return RepeatAll
	default:
		return RepeatNone
	}
}
