package engine

import "fmt"

// QualificationTier ranks a teacher's fitness for a subject.
type QualificationTier int

const (
	TierNone QualificationTier = iota
	TierMinor
	TierExactMajor
)

func (q QualificationTier) String() string {
	switch q {
	case TierExactMajor:
		return "EXACT_MAJOR"
	case TierMinor:
		return "MINOR"
	default:
		return "NONE"
	}
}

// Violation records one hard-constraint breach found by the final gate.
type Violation struct {
	Kind       string      `json:"kind"`
	Message    string      `json:"message"`
	Assignment Assignment  `json:"assignment"`
	Other      *Assignment `json:"other,omitempty"`
}

const (
	ViolationTeacherClash  = "TEACHER_CLASH"
	ViolationRoomClash     = "ROOM_CLASH"
	ViolationDailyHours    = "DAILY_HOURS"
	ViolationWeeklyHours   = "WEEKLY_HOURS"
	ViolationQualification = "QUALIFICATION"
	ViolationCapacity      = "CAPACITY"
	ViolationShift         = "SHIFT"
)

// Checker evaluates the hard constraints shared by both strategies and by
// the post-scheduling gate. It is stateless apart from policy knobs.
type Checker struct {
	// AllowUnqualified permits NONE-tier placements with the lowest
	// priority weight instead of forbidding them outright.
	AllowUnqualified bool
}

// Qualifies classifies the teacher-subject match.
func (c Checker) Qualifies(t Teacher, subject string) QualificationTier {
	switch subject {
	case "":
		return TierNone
	case t.Major:
		return TierExactMajor
	case t.Minor:
		return TierMinor
	default:
		return TierNone
	}
}

// Eligible reports whether the tier is placeable under current policy.
func (c Checker) Eligible(tier QualificationTier) bool {
	return tier != TierNone || c.AllowUnqualified
}

// FitsCapacity reports whether the room can hold the class section.
func (c Checker) FitsCapacity(room Room, class ClassDemand) bool {
	if class.SectionSize <= 0 {
		return true
	}
	return room.Capacity >= class.SectionSize
}

// FitsShift reports whether a session spanning [start, start+duration)
// respects both the class and room shift restrictions. A session never
// straddles a shift boundary.
func (c Checker) FitsShift(limits Limits, class ClassDemand, room Room, start, duration int) bool {
	if duration < 1 {
		duration = 1
	}
	end := start + duration - 1
	if start < 0 || end >= NumPeriods {
		return false
	}
	windows := ShiftWindows(limits.NumShifts)
	for i, w := range windows {
		shift := i + 1
		if class.Shift != 0 && class.Shift != shift {
			continue
		}
		if room.Shift != 0 && room.Shift != shift {
			continue
		}
		if start >= w.Start && end <= w.End {
			return true
		}
	}
	return false
}

// NoConflict checks teacher-time and room-time disjointness of the
// candidate against every committed assignment.
func (c Checker) NoConflict(candidate Assignment, committed []Assignment) bool {
	for _, a := range committed {
		if !candidate.Overlaps(a) {
			continue
		}
		if a.TeacherID == candidate.TeacherID || a.RoomID == candidate.RoomID {
			return false
		}
	}
	return true
}

// WithinWorkload verifies the teacher's daily and weekly hour ceilings with
// the candidate included. A teacher-level ceiling overrides the global one;
// zero ceilings are unbounded.
func (c Checker) WithinWorkload(t Teacher, limits Limits, committed []Assignment, candidate Assignment) bool {
	maxDay := limits.MaxPerDay
	if t.MaxHoursPerDay > 0 {
		maxDay = t.MaxHoursPerDay
	}
	maxWeek := limits.MaxPerWeek
	if t.MaxHoursPerWeek > 0 {
		maxWeek = t.MaxHoursPerWeek
	}

	day := candidate.Duration
	week := candidate.Duration
	for _, a := range committed {
		if a.TeacherID != t.ID {
			continue
		}
		week += a.Duration
		if a.Day == candidate.Day {
			day += a.Duration
		}
	}
	if maxDay > 0 && day > maxDay {
		return false
	}
	if maxWeek > 0 && week > maxWeek {
		return false
	}
	return true
}

// ValidateResult is the final gate: it re-checks every assignment of a
// finished result against the full constraint set and returns all breaches.
// A scheduler that emits a violating result is a defect; callers must not
// serve results that fail here.
func (c Checker) ValidateResult(req ScheduleRequest, result ScheduleResult) []Violation {
	teachers := make(map[string]Teacher, len(req.Teachers))
	for _, t := range req.Teachers {
		teachers[t.ID] = t
	}
	rooms := make(map[string]Room, len(req.Rooms))
	for _, r := range req.Rooms {
		rooms[r.ID] = r
	}
	classes := make(map[string]ClassDemand, len(req.Classes))
	for _, cl := range req.Classes {
		classes[cl.ID] = cl
	}

	var violations []Violation

	for i, a := range result.Assignments {
		for j := i + 1; j < len(result.Assignments); j++ {
			b := result.Assignments[j]
			if !a.Overlaps(b) {
				continue
			}
			if a.TeacherID == b.TeacherID {
				other := b
				violations = append(violations, Violation{
					Kind:       ViolationTeacherClash,
					Message:    fmt.Sprintf("teacher %s double-booked on %s period %d", a.TeacherID, Days[a.Day], a.Period),
					Assignment: a,
					Other:      &other,
				})
			}
			if a.RoomID == b.RoomID {
				other := b
				violations = append(violations, Violation{
					Kind:       ViolationRoomClash,
					Message:    fmt.Sprintf("room %s double-booked on %s period %d", a.RoomID, Days[a.Day], a.Period),
					Assignment: a,
					Other:      &other,
				})
			}
		}

		teacher, ok := teachers[a.TeacherID]
		if ok {
			if tier := c.Qualifies(teacher, a.Subject); !c.Eligible(tier) {
				violations = append(violations, Violation{
					Kind:       ViolationQualification,
					Message:    fmt.Sprintf("teacher %s is not qualified for %s", a.TeacherID, a.Subject),
					Assignment: a,
				})
			}
		}
		if room, ok := rooms[a.RoomID]; ok {
			if class, ok := classes[a.ClassID]; ok {
				if !c.FitsCapacity(room, class) {
					violations = append(violations, Violation{
						Kind:       ViolationCapacity,
						Message:    fmt.Sprintf("room %s too small for class %s", a.RoomID, a.ClassID),
						Assignment: a,
					})
				}
				if !c.FitsShift(req.Limits, class, room, a.Period, a.Duration) {
					violations = append(violations, Violation{
						Kind:       ViolationShift,
						Message:    fmt.Sprintf("class %s placed outside its shift window", a.ClassID),
						Assignment: a,
					})
				}
			}
		}
	}

	violations = append(violations, c.workloadViolations(req, result.Assignments, teachers)...)
	return violations
}

func (c Checker) workloadViolations(req ScheduleRequest, assignments []Assignment, teachers map[string]Teacher) []Violation {
	type dayKey struct {
		teacher string
		day     int
	}
	daily := make(map[dayKey]int)
	weekly := make(map[string]int)
	sample := make(map[string]Assignment)
	for _, a := range assignments {
		daily[dayKey{a.TeacherID, a.Day}] += a.Duration
		weekly[a.TeacherID] += a.Duration
		sample[a.TeacherID] = a
	}

	var violations []Violation
	for key, hours := range daily {
		t, ok := teachers[key.teacher]
		if !ok {
			continue
		}
		maxDay := req.Limits.MaxPerDay
		if t.MaxHoursPerDay > 0 {
			maxDay = t.MaxHoursPerDay
		}
		if maxDay > 0 && hours > maxDay {
			violations = append(violations, Violation{
				Kind:       ViolationDailyHours,
				Message:    fmt.Sprintf("teacher %s exceeds %dh/day on %s (%dh)", key.teacher, maxDay, Days[key.day], hours),
				Assignment: sample[key.teacher],
			})
		}
	}
	for id, hours := range weekly {
		t, ok := teachers[id]
		if !ok {
			continue
		}
		maxWeek := req.Limits.MaxPerWeek
		if t.MaxHoursPerWeek > 0 {
			maxWeek = t.MaxHoursPerWeek
		}
		if maxWeek > 0 && hours > maxWeek {
			violations = append(violations, Violation{
				Kind:       ViolationWeeklyHours,
				Message:    fmt.Sprintf("teacher %s exceeds %dh/week (%dh)", id, maxWeek, hours),
				Assignment: sample[id],
			})
		}
	}
	return violations
}
