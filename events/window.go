package events

import "fmt"

// Range is an inclusive block range.
type Range struct {
	From uint64
	To   uint64
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// LastBlocks is the range covering the n blocks before latest, inclusive of
// latest, clamped at genesis.
func LastBlocks(latest, n uint64) Range {
	var from uint64
	if latest > n {
		from = latest - n
	}
	return Range{From: from, To: latest}
}

// Windows splits the chain behind latest into count adjacent ranges of span
// blocks, newest first. Ranges never overlap and stop at genesis.
func Windows(latest, span uint64, count int) []Range {
	if span == 0 || count <= 0 {
		return nil
	}

	ranges := make([]Range, 0, count)
	to := latest
	for i := 0; i < count; i++ {
		var from uint64
		if to+1 > span {
			from = to + 1 - span
		}
		ranges = append(ranges, Range{From: from, To: to})
		if from == 0 {
			break
		}
		to = from - 1
	}
	return ranges
}
