package quest

import (
	"sort"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
)

// Record is the persisted form of one quest template's runtime state. A
// template that was never accepted has every flag false.
type Record struct {
	QuestID       string  `json:"questID" yaml:"questID"`
	Progress      int     `json:"progress" yaml:"progress"`
	StartTime     float64 `json:"startTime" yaml:"startTime"`
	RemainingTime float64 `json:"remainingTime" yaml:"remainingTime"`
	FinishTime    float64 `json:"finishTime" yaml:"finishTime"`
	Completed     bool    `json:"completed" yaml:"completed"`
	Failed        bool    `json:"failed" yaml:"failed"`
	Claimed       bool    `json:"claimed" yaml:"claimed"`
	Active        bool    `json:"active" yaml:"active"`
}

func (r Record) status() (Status, bool) {
	switch {
	case r.Failed:
		return StatusFailed, true
	case r.Claimed:
		return StatusClaimed, true
	case r.Completed:
		return StatusCompleted, true
	case r.Active:
		return StatusActive, true
	}
	return "", false
}

func recordOf(id string, e *Entry) Record {
	r := Record{QuestID: id}
	if e == nil {
		return r
	}
	r.Progress = e.Progress
	r.StartTime = e.StartTime
	r.RemainingTime = e.Remaining
	r.FinishTime = e.FinishTime
	switch e.Status {
	case StatusActive:
		r.Active = true
	case StatusCompleted:
		r.Active = true
		r.Completed = true
	case StatusClaimed:
		r.Completed = true
		r.Claimed = true
	case StatusFailed:
		r.Failed = true
	}
	return r
}

// Export returns one record per template, in template order.
func (t *Tracker) Export(templates []catalog.QuestTemplate) []Record {
	out := make([]Record, 0, len(templates))
	for _, tmpl := range templates {
		e, ok := t.live[tmpl.ID]
		if !ok {
			e = t.history[tmpl.ID]
		}
		out = append(out, recordOf(tmpl.ID, e))
	}
	return out
}

// Import restores quests saved by Export. It expects an empty tracker.
//
// The first pass resolves every started record and registers its wrapper so
// acceptance order (recovered from start times) is fixed before any status
// is applied. The second pass applies progress, timers, and status. Records
// whose template no longer resolves are skipped with a warning.
func (t *Tracker) Import(records []Record, clock float64) {
	t.Reset()
	t.clock = clock

	type pending struct {
		rec   Record
		entry *Entry
	}
	var staged []pending

	for _, rec := range records {
		if _, started := rec.status(); !started {
			continue
		}
		if t.templates == nil {
			t.logger.Warn("Cannot restore quest without templates", "quest_id", rec.QuestID)
			continue
		}
		tmpl, ok := t.templates.Quest(rec.QuestID)
		if !ok {
			t.logger.Warn("Skipping saved quest with unknown template", "quest_id", rec.QuestID)
			continue
		}
		staged = append(staged, pending{rec: rec, entry: &Entry{Template: tmpl, Status: StatusActive}})
	}

	sort.SliceStable(staged, func(i, j int) bool {
		return staged[i].rec.StartTime < staged[j].rec.StartTime
	})

	for _, p := range staged {
		status, _ := p.rec.status()
		if status.Terminal() {
			t.history[p.rec.QuestID] = p.entry
			continue
		}
		t.live[p.rec.QuestID] = p.entry
		t.order = append(t.order, p.rec.QuestID)
	}

	for _, p := range staged {
		e := p.entry
		status, _ := p.rec.status()
		e.Progress = p.rec.Progress
		if e.Progress < 0 {
			e.Progress = 0
		}
		if e.Progress > e.Required() {
			e.Progress = e.Required()
		}
		e.StartTime = p.rec.StartTime
		e.Remaining = p.rec.RemainingTime
		e.FinishTime = p.rec.FinishTime
		e.Status = status
		if status == StatusActive && e.Progress >= e.Required() {
			e.Status = StatusCompleted
		}
	}
}
