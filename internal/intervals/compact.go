package intervals

import (
	"sort"

	"github.com/angelmondragon/settlement-archiver/internal/reasons"
	"github.com/angelmondragon/settlement-archiver/pkg/types"
)

// Day is one excluded calendar date as received on the event.
type Day struct {
	Date       types.Date
	ReasonCode string
}

// Interval is an inclusive run of excluded days sharing a reason.
type Interval struct {
	From       types.Date
	To         types.Date
	ReasonCode string
}

// Compact folds days into the minimal list of contiguous intervals. A day
// joins the previous interval when it is the next calendar date and either
// carries the same code or is a day off following resumed work; the
// interval keeps its original code. Input is ordered by date first and
// repeated dates keep their first occurrence.
func Compact(days []Day) []Interval {
	if len(days) == 0 {
		return nil
	}

	ordered := make([]Day, len(days))
	copy(ordered, days)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	out := make([]Interval, 0, len(ordered))
	for _, day := range ordered {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if !day.Date.After(last.To) {
				continue
			}
			if last.To.AddDays(1).Equal(day.Date) && absorbs(last.ReasonCode, day.ReasonCode) {
				last.To = day.Date
				continue
			}
		}
		out = append(out, Interval{From: day.Date, To: day.Date, ReasonCode: day.ReasonCode})
	}
	return out
}

func absorbs(current, next string) bool {
	if current == next {
		return true
	}
	return current == reasons.CodeResumedWork && next == reasons.CodeDayOff
}
