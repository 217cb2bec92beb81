package quest

import "sort"

func sortGroup(e Entry) int {
	switch {
	case e.Status == StatusCompleted:
		return 0
	case e.Status == StatusActive && e.Timed():
		return 1
	case e.Status == StatusActive:
		return 2
	default:
		return 3
	}
}

// Sorted returns every accepted quest in quest-log order: completed and
// unclaimed first, then timed quests by time left, then untimed quests
// newest first, then finished quests most recent first.
func (t *Tracker) Sorted() []Entry {
	out := t.Live()
	for _, e := range t.history {
		out = append(out, *e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ga, gb := sortGroup(a), sortGroup(b)
		if ga != gb {
			return ga < gb
		}
		switch ga {
		case 1:
			return a.Remaining < b.Remaining
		case 2:
			return a.StartTime > b.StartTime
		case 3:
			if a.FinishTime != b.FinishTime {
				return a.FinishTime > b.FinishTime
			}
			return a.ID() < b.ID()
		}
		return false
	})
	return out
}
