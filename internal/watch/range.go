package watch

import "fmt"

// BlockRange is one inclusive slice of the block numbers a poll cycle covers.
type BlockRange struct {
	From uint64
	To   uint64
}

// SplitRange cuts [from, to] into at most batchSize-wide ranges so log
// filters stay under provider limits.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block %d precedes from block %d", to, from)
	}

	count := (to-from)/batchSize + 1
	ranges := make([]BlockRange, 0, count)
	start := from
	for i := uint64(0); i < count; i++ {
		end := to
		if i < count-1 {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		start = end + 1
	}

	return ranges, nil
}
