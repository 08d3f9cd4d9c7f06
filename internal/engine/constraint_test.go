package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifies(t *testing.T) {
	checker := Checker{}
	teacher := Teacher{ID: "t1", Major: "Mathematics", Minor: "Physics"}

	assert.Equal(t, TierExactMajor, checker.Qualifies(teacher, "Mathematics"))
	assert.Equal(t, TierMinor, checker.Qualifies(teacher, "Physics"))
	assert.Equal(t, TierNone, checker.Qualifies(teacher, "History"))
	assert.Equal(t, TierNone, checker.Qualifies(teacher, ""))
}

func TestQualifiesNoMinor(t *testing.T) {
	checker := Checker{}
	teacher := Teacher{ID: "t1", Major: "Mathematics"}

	// An empty minor must never match an empty subject as MINOR.
	assert.Equal(t, TierNone, checker.Qualifies(teacher, ""))
	assert.Equal(t, TierNone, checker.Qualifies(teacher, "Physics"))
}

func TestEligible(t *testing.T) {
	strict := Checker{}
	assert.True(t, strict.Eligible(TierExactMajor))
	assert.True(t, strict.Eligible(TierMinor))
	assert.False(t, strict.Eligible(TierNone))

	lenient := Checker{AllowUnqualified: true}
	assert.True(t, lenient.Eligible(TierNone))
}

func TestFitsCapacity(t *testing.T) {
	checker := Checker{}
	room := Room{ID: "r1", Capacity: 30}

	assert.True(t, checker.FitsCapacity(room, ClassDemand{SectionSize: 30}))
	assert.True(t, checker.FitsCapacity(room, ClassDemand{SectionSize: 25}))
	assert.False(t, checker.FitsCapacity(room, ClassDemand{SectionSize: 31}))
	// Unknown section size always fits.
	assert.True(t, checker.FitsCapacity(room, ClassDemand{}))
}

func TestFitsShift(t *testing.T) {
	checker := Checker{}
	limits := Limits{NumShifts: 2}

	anyRoom := Room{ID: "r1", Capacity: 30}
	morning := ClassDemand{ID: "c1", Shift: 1}
	afternoon := ClassDemand{ID: "c2", Shift: 2}
	unpinned := ClassDemand{ID: "c3"}

	assert.True(t, checker.FitsShift(limits, morning, anyRoom, 0, 1))
	assert.True(t, checker.FitsShift(limits, morning, anyRoom, 4, 1))
	assert.False(t, checker.FitsShift(limits, morning, anyRoom, 5, 1))

	assert.True(t, checker.FitsShift(limits, afternoon, anyRoom, 5, 1))
	assert.False(t, checker.FitsShift(limits, afternoon, anyRoom, 4, 1))

	// A session must not straddle the shift boundary at period 4/5.
	assert.False(t, checker.FitsShift(limits, unpinned, anyRoom, 4, 2))
	assert.True(t, checker.FitsShift(limits, unpinned, anyRoom, 3, 2))
	assert.True(t, checker.FitsShift(limits, unpinned, anyRoom, 5, 2))

	// Room shift restrictions apply the same way.
	morningRoom := Room{ID: "r2", Capacity: 30, Shift: 1}
	assert.True(t, checker.FitsShift(limits, unpinned, morningRoom, 0, 1))
	assert.False(t, checker.FitsShift(limits, unpinned, morningRoom, 6, 1))

	// Disjoint class and room shifts can never fit.
	assert.False(t, checker.FitsShift(limits, afternoon, morningRoom, 0, 1))

	// Out-of-grid spans are rejected.
	assert.False(t, checker.FitsShift(Limits{NumShifts: 1}, unpinned, anyRoom, 9, 2))
	assert.False(t, checker.FitsShift(Limits{NumShifts: 1}, unpinned, anyRoom, -1, 1))
}

func TestNoConflict(t *testing.T) {
	checker := Checker{}
	committed := []Assignment{
		{TeacherID: "t1", RoomID: "r1", Day: 0, Period: 2, Duration: 2},
	}

	// Same teacher overlapping.
	assert.False(t, checker.NoConflict(Assignment{TeacherID: "t1", RoomID: "r2", Day: 0, Period: 3, Duration: 1}, committed))
	// Same room overlapping.
	assert.False(t, checker.NoConflict(Assignment{TeacherID: "t2", RoomID: "r1", Day: 0, Period: 2, Duration: 1}, committed))
	// Overlapping slot, different teacher and room.
	assert.True(t, checker.NoConflict(Assignment{TeacherID: "t2", RoomID: "r2", Day: 0, Period: 2, Duration: 1}, committed))
	// Same teacher, disjoint time.
	assert.True(t, checker.NoConflict(Assignment{TeacherID: "t1", RoomID: "r1", Day: 0, Period: 4, Duration: 1}, committed))
}

func TestWithinWorkload(t *testing.T) {
	checker := Checker{}
	teacher := Teacher{ID: "t1", Major: "Mathematics"}
	limits := Limits{MaxPerDay: 2, MaxPerWeek: 3}

	committed := []Assignment{
		{TeacherID: "t1", Day: 0, Period: 0, Duration: 1},
		{TeacherID: "t1", Day: 1, Period: 0, Duration: 1},
	}

	// Third hour in the week is fine, second hour on day 0 is fine.
	assert.True(t, checker.WithinWorkload(teacher, limits, committed, Assignment{TeacherID: "t1", Day: 0, Period: 1, Duration: 1}))
	// Fourth weekly hour breaks the weekly ceiling.
	full := append(committed, Assignment{TeacherID: "t1", Day: 2, Period: 0, Duration: 1})
	assert.False(t, checker.WithinWorkload(teacher, limits, full, Assignment{TeacherID: "t1", Day: 3, Period: 0, Duration: 1}))
	// Duration counts toward the daily ceiling.
	assert.False(t, checker.WithinWorkload(teacher, limits, committed, Assignment{TeacherID: "t1", Day: 0, Period: 1, Duration: 2}))
}

func TestWithinWorkloadTeacherOverride(t *testing.T) {
	checker := Checker{}
	limits := Limits{MaxPerDay: 6, MaxPerWeek: 30}
	teacher := Teacher{ID: "t1", Major: "Mathematics", MaxHoursPerDay: 1}

	committed := []Assignment{{TeacherID: "t1", Day: 0, Period: 0, Duration: 1}}
	assert.False(t, checker.WithinWorkload(teacher, limits, committed, Assignment{TeacherID: "t1", Day: 0, Period: 2, Duration: 1}))
	assert.True(t, checker.WithinWorkload(teacher, limits, committed, Assignment{TeacherID: "t1", Day: 1, Period: 2, Duration: 1}))
}

func TestWithinWorkloadUnbounded(t *testing.T) {
	checker := Checker{}
	teacher := Teacher{ID: "t1", Major: "Mathematics"}

	committed := make([]Assignment, 0, 20)
	for day := 0; day < 5; day++ {
		for p := 0; p < 4; p++ {
			committed = append(committed, Assignment{TeacherID: "t1", Day: day, Period: p, Duration: 1})
		}
	}
	// Zero ceilings mean no limit at all.
	assert.True(t, checker.WithinWorkload(teacher, Limits{}, committed, Assignment{TeacherID: "t1", Day: 0, Period: 5, Duration: 1}))
}

func TestValidateResultDetectsClashes(t *testing.T) {
	checker := Checker{}
	req := ScheduleRequest{
		Teachers: []Teacher{{ID: "t1", Major: "Mathematics"}, {ID: "t2", Major: "English"}},
		Rooms:    []Room{{ID: "r1", Capacity: 30}},
		Classes: []ClassDemand{
			{ID: "c1", Subject: "Mathematics", SessionsPerWeek: 1},
			{ID: "c2", Subject: "English", SessionsPerWeek: 1},
		},
		Limits: Limits{MaxPerDay: 6, MaxPerWeek: 30, NumShifts: 1},
	}
	result := ScheduleResult{
		Assignments: []Assignment{
			{TeacherID: "t1", ClassID: "c1", Subject: "Mathematics", RoomID: "r1", Day: 0, Period: 0, Duration: 1, Occurrence: 1},
			{TeacherID: "t2", ClassID: "c2", Subject: "English", RoomID: "r1", Day: 0, Period: 0, Duration: 1, Occurrence: 1},
		},
	}

	violations := checker.ValidateResult(req, result)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationRoomClash, violations[0].Kind)
	require.NotNil(t, violations[0].Other)
}

func TestValidateResultDetectsQualification(t *testing.T) {
	checker := Checker{}
	req := ScheduleRequest{
		Teachers: []Teacher{{ID: "t1", Major: "English"}},
		Rooms:    []Room{{ID: "r1", Capacity: 30}},
		Classes:  []ClassDemand{{ID: "c1", Subject: "Mathematics", SessionsPerWeek: 1}},
		Limits:   Limits{NumShifts: 1},
	}
	result := ScheduleResult{
		Assignments: []Assignment{
			{TeacherID: "t1", ClassID: "c1", Subject: "Mathematics", RoomID: "r1", Day: 0, Period: 0, Duration: 1, Occurrence: 1},
		},
	}

	violations := checker.ValidateResult(req, result)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationQualification, violations[0].Kind)

	// With the policy relaxed the same result passes.
	lenient := Checker{AllowUnqualified: true}
	assert.Empty(t, lenient.ValidateResult(req, result))
}

func TestValidateResultDetectsWorkload(t *testing.T) {
	checker := Checker{}
	req := ScheduleRequest{
		Teachers: []Teacher{{ID: "t1", Major: "Mathematics"}},
		Rooms:    []Room{{ID: "r1", Capacity: 30}},
		Classes:  []ClassDemand{{ID: "c1", Subject: "Mathematics", SessionsPerWeek: 3}},
		Limits:   Limits{MaxPerDay: 2, MaxPerWeek: 30, NumShifts: 1},
	}
	result := ScheduleResult{
		Assignments: []Assignment{
			{TeacherID: "t1", ClassID: "c1", Subject: "Mathematics", RoomID: "r1", Day: 0, Period: 0, Duration: 1, Occurrence: 1},
			{TeacherID: "t1", ClassID: "c1", Subject: "Mathematics", RoomID: "r1", Day: 0, Period: 1, Duration: 1, Occurrence: 2},
			{TeacherID: "t1", ClassID: "c1", Subject: "Mathematics", RoomID: "r1", Day: 0, Period: 2, Duration: 1, Occurrence: 3},
		},
	}

	violations := checker.ValidateResult(req, result)
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationDailyHours, violations[0].Kind)
}

func TestValidateResultCleanSchedule(t *testing.T) {
	checker := Checker{}
	req := ScheduleRequest{
		Teachers: []Teacher{{ID: "t1", Major: "Mathematics"}},
		Rooms:    []Room{{ID: "r1", Capacity: 30}},
		Classes:  []ClassDemand{{ID: "c1", Subject: "Mathematics", SessionsPerWeek: 2, SectionSize: 25}},
		Limits:   Limits{MaxPerDay: 6, MaxPerWeek: 30, NumShifts: 1},
	}
	result := ScheduleResult{
		Assignments: []Assignment{
			{TeacherID: "t1", ClassID: "c1", Subject: "Mathematics", RoomID: "r1", Day: 0, Period: 0, Duration: 1, Occurrence: 1},
			{TeacherID: "t1", ClassID: "c1", Subject: "Mathematics", RoomID: "r1", Day: 1, Period: 0, Duration: 1, Occurrence: 2},
		},
	}

	assert.Empty(t, checker.ValidateResult(req, result))
}
