package scheduling

import (
	"sort"
	"time"

	"github.com/astralisone/platform/internal/domain/shared"
)

// Interval is a half-open time range [Start, End)
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints (a.End == b.Start) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether the interval fully covers other
func (i Interval) Contains(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// Duration returns the interval length
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// IsValid reports whether the interval is non-empty
func (i Interval) IsValid() bool {
	return i.End.After(i.Start)
}

// Intersect returns the overlapping portion of two intervals, if any
func (i Interval) Intersect(other Interval) (Interval, bool) {
	start := i.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := i.End
	if other.End.Before(end) {
		end = other.End
	}
	if !end.After(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Slot is a bookable candidate interval with its suggestion score.
// Higher scores are better; ordering among equal scores is by start time.
type Slot struct {
	Interval
	Score float64 `json:"score"`
}

// DayLoad summarizes booking pressure for one calendar day
type DayLoad struct {
	Date             string  `json:"date"`
	AvailableMinutes int     `json:"available_minutes"`
	BookedMinutes    int     `json:"booked_minutes"`
	Utilization      float64 `json:"utilization"`
	Overbooked       bool    `json:"overbooked"`
}

// overbookedThresholdPct marks a day overbooked at 75% utilization and above
const overbookedThresholdPct = 75

// SlotRequest describes a slot suggestion query
type SlotRequest struct {
	From     time.Time
	To       time.Time
	Duration time.Duration
	Step     time.Duration
	Limit    int
}

const (
	defaultSlotStep  = 30 * time.Minute
	defaultSlotLimit = 10
	maxSlotRangeDays = 60
)

func (r *SlotRequest) normalize() error {
	if r.Duration <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "slot duration must be positive")
	}
	if !r.To.After(r.From) {
		return shared.NewDomainError("INVALID_INPUT", "range end must be after range start")
	}
	if r.To.Sub(r.From) > maxSlotRangeDays*24*time.Hour {
		return shared.NewDomainError("INVALID_INPUT", "slot search range must not exceed 60 days")
	}
	if r.Step <= 0 {
		r.Step = defaultSlotStep
	}
	if r.Limit <= 0 {
		r.Limit = defaultSlotLimit
	}
	return nil
}

// FindConflicts returns the busy events whose intervals overlap the
// proposed one, ordered by start time.
func FindConflicts(proposed Interval, events []SchedulingEvent) []SchedulingEvent {
	conflicts := make([]SchedulingEvent, 0)
	for _, e := range events {
		if e.IsBusy() && proposed.Overlaps(e.Interval()) {
			conflicts = append(conflicts, e)
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].StartAt.Before(conflicts[j].StartAt)
	})
	return conflicts
}

// busyIntervals collects the intervals of blocking events, merged
func busyIntervals(events []SchedulingEvent) []Interval {
	busy := make([]Interval, 0, len(events))
	for _, e := range events {
		if e.IsBusy() {
			busy = append(busy, e.Interval())
		}
	}
	return mergeIntervals(busy)
}

// mergeIntervals sorts and coalesces overlapping or touching intervals
func mergeIntervals(intervals []Interval) []Interval {
	if len(intervals) <= 1 {
		return intervals
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
	merged := intervals[:1]
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// subtractIntervals removes busy time from a window, returning the free
// remainder in order. busy must be merged and sorted.
func subtractIntervals(window Interval, busy []Interval) []Interval {
	free := make([]Interval, 0, len(busy)+1)
	cursor := window.Start
	for _, b := range busy {
		if !b.End.After(cursor) || !b.Start.Before(window.End) {
			continue
		}
		if b.Start.After(cursor) {
			free = append(free, Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}

// dayWindows materializes the merged availability windows for a calendar
// day, honoring blackouts.
func dayWindows(day time.Time, rules []AvailabilityRule) []Interval {
	for i := range rules {
		if rules[i].BlocksDate(day) {
			return nil
		}
	}
	windows := make([]Interval, 0, 2)
	for i := range rules {
		if w, ok := rules[i].WindowOn(day); ok {
			windows = append(windows, w)
		}
	}
	return mergeIntervals(windows)
}

// ComputeDayLoad measures booked versus available minutes for the day
// containing the given time, in the org's availability windows. A day with
// no windows is never overbooked.
func ComputeDayLoad(day time.Time, rules []AvailabilityRule, events []SchedulingEvent) DayLoad {
	windows := dayWindows(day, rules)
	busy := busyIntervals(events)

	load := DayLoad{Date: day.UTC().Format("2006-01-02")}
	for _, w := range windows {
		load.AvailableMinutes += int(w.Duration().Minutes())
		for _, b := range busy {
			if iv, ok := w.Intersect(b); ok {
				load.BookedMinutes += int(iv.Duration().Minutes())
			}
		}
	}
	if load.AvailableMinutes > 0 {
		load.Utilization = float64(load.BookedMinutes) / float64(load.AvailableMinutes)
		load.Overbooked = load.BookedMinutes*100 >= load.AvailableMinutes*overbookedThresholdPct
	}
	return load
}

// SuggestSlots returns up to req.Limit free slots inside the availability
// windows of [req.From, req.To), excluding busy events. Slots are scored
// earliest-first with a penalty for heavily booked days; the result order
// is deterministic (score descending, then start ascending).
func SuggestSlots(req SlotRequest, rules []AvailabilityRule, events []SchedulingEvent) ([]Slot, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	busy := busyIntervals(events)
	slots := make([]Slot, 0, req.Limit)

	for day := startOfDay(req.From); day.Before(req.To); day = day.AddDate(0, 0, 1) {
		windows := dayWindows(day, rules)
		if len(windows) == 0 {
			continue
		}
		load := ComputeDayLoad(day, rules, events)
		for _, w := range windows {
			// clamp to the requested range
			if w.Start.Before(req.From) {
				w.Start = req.From
			}
			if w.End.After(req.To) {
				w.End = req.To
			}
			if !w.IsValid() {
				continue
			}
			for _, free := range subtractIntervals(w, busy) {
				for start := free.Start; !start.Add(req.Duration).After(free.End); start = start.Add(req.Step) {
					candidate := Interval{Start: start, End: start.Add(req.Duration)}
					slots = append(slots, Slot{
						Interval: candidate,
						Score:    scoreSlot(candidate, req.From, load),
					})
				}
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		return slots[i].Start.Before(slots[j].Start)
	})
	if len(slots) > req.Limit {
		slots = slots[:req.Limit]
	}
	return slots, nil
}

// scoreSlot prefers earlier slots and lightly loaded days. The score decays
// with distance from the range start and is halved at full utilization.
func scoreSlot(slot Interval, rangeStart time.Time, load DayLoad) float64 {
	daysOut := slot.Start.Sub(rangeStart).Hours() / 24
	score := 1.0 / (1.0 + daysOut)
	score *= 1.0 - 0.5*load.Utilization
	return score
}

// ResolveConflicts proposes alternatives for a conflicted interval: the
// nearest free slots of the same duration, same day first, then the
// following days up to horizonDays.
func ResolveConflicts(proposed Interval, horizonDays int, rules []AvailabilityRule, events []SchedulingEvent) ([]Slot, error) {
	if !proposed.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "proposed interval is empty")
	}
	if horizonDays <= 0 {
		horizonDays = 7
	}

	from := startOfDay(proposed.Start)
	req := SlotRequest{
		From:     from,
		To:       from.AddDate(0, 0, horizonDays),
		Duration: proposed.Duration(),
		Limit:    1 << 16,
	}
	candidates, err := SuggestSlots(req, rules, events)
	if err != nil {
		return nil, err
	}

	proposedDay := proposed.Start.UTC().Format("2006-01-02")
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := candidates[i], candidates[j]
		sameI := si.Start.UTC().Format("2006-01-02") == proposedDay
		sameJ := sj.Start.UTC().Format("2006-01-02") == proposedDay
		if sameI != sameJ {
			return sameI
		}
		di := absDuration(si.Start.Sub(proposed.Start))
		dj := absDuration(sj.Start.Sub(proposed.Start))
		if di != dj {
			return di < dj
		}
		// on equal distance, prefer the slot after the proposal
		iAfter := !si.Start.Before(proposed.Start)
		jAfter := !sj.Start.Before(proposed.Start)
		if iAfter != jAfter {
			return iAfter
		}
		return si.Start.Before(sj.Start)
	})
	if len(candidates) > defaultSlotLimit {
		candidates = candidates[:defaultSlotLimit]
	}
	return candidates, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
