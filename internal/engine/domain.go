package engine

import (
	"fmt"
	"time"
)

// Days enumerates the teaching week.
var Days = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

// NumPeriods is the number of hourly periods in one teaching day,
// starting at 07:00.
const NumPeriods = 10

// PeriodLabel renders the human-readable window for a period index.
func PeriodLabel(period int) string {
	return fmt.Sprintf("%02d:00-%02d:00", 7+period, 8+period)
}

// PeriodRange is an inclusive span of period indexes.
type PeriodRange struct {
	Start int
	End   int
}

// shiftPeriodRanges partitions the day per configured shift count:
// 1 = whole day, 2 = am/pm, 3 = am/pm/evening.
var shiftPeriodRanges = map[int][]PeriodRange{
	1: {{0, 9}},
	2: {{0, 4}, {5, 9}},
	3: {{0, 2}, {3, 6}, {7, 9}},
}

// ShiftWindows returns the period windows for the given shift count.
// Unknown counts collapse to a single whole-day window.
func ShiftWindows(numShifts int) []PeriodRange {
	if windows, ok := shiftPeriodRanges[numShifts]; ok {
		return windows
	}
	return shiftPeriodRanges[1]
}

// Slot identifies one (day, period) cell of the weekly grid.
type Slot struct {
	Day    int `json:"day"`
	Period int `json:"period"`
}

// Teacher is an immutable per-request description of one teacher.
type Teacher struct {
	ID              string `json:"id"`
	Major           string `json:"major"`
	Minor           string `json:"minor,omitempty"`
	MaxHoursPerDay  int    `json:"maxHoursPerDay,omitempty"`
	MaxHoursPerWeek int    `json:"maxHoursPerWeek,omitempty"`
	// Unavailable lists blocked grid cells. Empty means fully available.
	Unavailable []Slot `json:"unavailable,omitempty"`
}

// Available reports whether the teacher may be placed at the given cell.
func (t Teacher) Available(day, period int) bool {
	for _, s := range t.Unavailable {
		if s.Day == day && s.Period == period {
			return false
		}
	}
	return true
}

// Room is an immutable per-request description of one room.
type Room struct {
	ID       string `json:"id"`
	Capacity int    `json:"capacity"`
	// Shift restricts the room to one shift window (1-based). Zero means any.
	Shift int `json:"shift,omitempty"`
}

// ClassDemand describes one class's weekly demand for a subject.
type ClassDemand struct {
	ID              string `json:"id"`
	Subject         string `json:"subject"`
	SessionsPerWeek int    `json:"timesPerWeek"`
	// Duration is the session length in periods; each session occupies
	// Duration consecutive periods and counts Duration hours of workload.
	Duration int `json:"duration"`
	// Shift pins the class to one shift window (1-based). Zero means any.
	Shift       int `json:"shift,omitempty"`
	SectionSize int `json:"sectionSize,omitempty"`
}

// Limits carries the request-global scheduling ceilings.
type Limits struct {
	MaxPerDay  int `json:"maxPerDay"`
	MaxPerWeek int `json:"maxPerWeek"`
	NumShifts  int `json:"numShifts"`
}

// ScheduleRequest is the full input for one scheduling run. It is hashed
// into the cache fingerprint; collection order never affects the key.
type ScheduleRequest struct {
	Teachers []Teacher     `json:"teachers"`
	Rooms    []Room        `json:"rooms"`
	Classes  []ClassDemand `json:"classes"`
	Limits   Limits        `json:"limits"`
}

// Assignment places one occurrence of a class with a teacher and room.
// Values are never mutated after creation.
type Assignment struct {
	TeacherID string `json:"teacher"`
	ClassID   string `json:"class"`
	Subject   string `json:"subject"`
	RoomID    string `json:"room"`
	Day       int    `json:"day"`
	Period    int    `json:"period"`
	Duration  int    `json:"duration"`
	// Occurrence distinguishes repeated weekly sessions, 1..SessionsPerWeek.
	Occurrence int `json:"occurrence"`
}

// PeriodEnd returns the last period index the assignment occupies.
func (a Assignment) PeriodEnd() int {
	if a.Duration <= 1 {
		return a.Period
	}
	return a.Period + a.Duration - 1
}

// Overlaps reports whether two assignments occupy a common (day, period).
func (a Assignment) Overlaps(b Assignment) bool {
	if a.Day != b.Day {
		return false
	}
	return a.Period <= b.PeriodEnd() && b.Period <= a.PeriodEnd()
}

// Status classifies the completeness of a scheduling run.
type Status string

const (
	StatusComplete   Status = "COMPLETE"
	StatusPartial    Status = "PARTIAL"
	StatusInfeasible Status = "INFEASIBLE"
)

// Strategy identifies which scheduler produced a result.
type Strategy string

const (
	StrategyGreedy Strategy = "GREEDY"
	StrategyLP     Strategy = "LP"
)

// OccurrenceRef identifies one class occurrence that could not be placed.
type OccurrenceRef struct {
	ClassID    string `json:"class"`
	Subject    string `json:"subject"`
	Occurrence int    `json:"occurrence"`
}

// ScheduleResult is the outcome of one scheduling run.
type ScheduleResult struct {
	Assignments []Assignment    `json:"assignments"`
	Status      Status          `json:"status"`
	Strategy    Strategy        `json:"strategy"`
	Elapsed     time.Duration   `json:"elapsed"`
	Unassigned  []OccurrenceRef `json:"unassigned,omitempty"`
	// Fingerprint is the cache key of the request that produced this result.
	Fingerprint string `json:"fingerprint,omitempty"`
	// FromCache marks results served without re-running a scheduler.
	FromCache bool `json:"cached,omitempty"`
	// Violations is populated only when the final constraint gate rejects
	// a scheduler's output; such results are never served as schedules.
	Violations []Violation `json:"violations,omitempty"`
}

// TotalOccurrences sums the demanded weekly sessions across all classes.
func (r ScheduleRequest) TotalOccurrences() int {
	total := 0
	for _, c := range r.Classes {
		total += c.SessionsPerWeek
	}
	return total
}

// defaultSubjectWeights ranks subjects by importance; lower is scheduled
// first. Unknown subjects weigh 10.
var defaultSubjectWeights = map[string]int{
	"Mathematics":        1,
	"English":            2,
	"Science":            3,
	"Physics":            3,
	"Chemistry":          3,
	"Biology":            3,
	"History":            4,
	"Geography":          4,
	"Filipino":           5,
	"Computer Science":   6,
	"Arts":               7,
	"Music":              7,
	"Physical Education": 8,
	"Health Science":     9,
}

const defaultSubjectWeight = 10

// SubjectWeight resolves a subject's importance from the configured table,
// falling back to the built-in ranking.
func SubjectWeight(weights map[string]int, subject string) int {
	if w, ok := weights[subject]; ok {
		return w
	}
	if w, ok := defaultSubjectWeights[subject]; ok {
		return w
	}
	return defaultSubjectWeight
}
