package highlight

import (
	"sort"
	"time"

	"montage-media/domain/analysis"
)

// SelectReel picks the best highlights that fit in target and returns them
// in playback order. The top highlight is always included, even when it
// alone exceeds target.
func SelectReel(highlights []analysis.HighlightSegment, target time.Duration) []analysis.HighlightSegment {
	if len(highlights) == 0 {
		return []analysis.HighlightSegment{}
	}

	ranked := append([]analysis.HighlightSegment(nil), highlights...)
	Rank(ranked)

	reel := []analysis.HighlightSegment{ranked[0]}
	total := ranked[0].Duration()
	for _, h := range ranked[1:] {
		if total+h.Duration() > target {
			continue
		}
		reel = append(reel, h)
		total += h.Duration()
	}

	sort.Slice(reel, func(i, j int) bool {
		return reel[i].Start < reel[j].Start
	})
	return reel
}

// TotalDuration sums the lengths of the highlights
func TotalDuration(highlights []analysis.HighlightSegment) time.Duration {
	var total time.Duration
	for _, h := range highlights {
		total += h.Duration()
	}
	return total
}
