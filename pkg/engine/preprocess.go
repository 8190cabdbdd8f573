package engine

import (
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/trackforge/trackforge/pkg/track"
)

// sortFixes orders fixes by timestamp, stably, so same-instant fixes keep
// their arrival order. Duplicates are not dropped here: identical samples
// are evidence of a stop and the coalescer counts them.
func sortFixes(fixes []track.Fix) []track.Fix {
	if len(fixes) < 2 {
		return fixes
	}

	sorted := make([]track.Fix, len(fixes))
	copy(sorted, fixes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	return sorted
}

// flagSuspectFixes marks fixes that are formally in range but almost
// certainly receiver errors. They are annotated, never removed.
func flagSuspectFixes(fixes []track.Fix) {
	for i := range fixes {
		if fixes[i].Latitude == 0 && fixes[i].Longitude == 0 {
			fixes[i].Anomalous = true
			log.Debug().Time("timestamp", fixes[i].Timestamp).Msg("Null Island fix flagged")
		}
	}
}

// coalesceDuplicates collapses runs of fixes sharing an identical timestamp
// and identical coordinates into their first member, recording the run
// length. Repeated same-place samples are a confirmed stop, not noise.
// Fixes sharing a timestamp but not a location are left alone; they become
// temporal conflict segments later.
func coalesceDuplicates(fixes []track.Fix) []track.Fix {
	if len(fixes) < 2 {
		return fixes
	}

	coalesced := fixes[:0]
	i := 0
	for i < len(fixes) {
		current := fixes[i]

		j := i + 1
		for j < len(fixes) &&
			fixes[j].Timestamp.Equal(current.Timestamp) &&
			fixes[j].SameLocation(current) {
			j++
		}

		if run := j - i; run > 1 {
			current.CoalescedCount = run
			log.Debug().
				Int("count", run).
				Time("timestamp", current.Timestamp).
				Msg("Coalesced identical samples into stop anchor")
		}

		coalesced = append(coalesced, current)
		i = j
	}

	return coalesced
}
