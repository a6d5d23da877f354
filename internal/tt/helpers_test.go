package tt_test

import "rill/internal/source"

func sourceRange(start, end uint32) source.TextRange {
	return source.TextRange{Start: start, End: end}
}
