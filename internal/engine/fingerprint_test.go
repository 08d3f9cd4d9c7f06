package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterministic(t *testing.T) {
	req := ScheduleRequest{
		Teachers: []Teacher{{ID: "t1", Major: "Mathematics"}},
		Rooms:    []Room{{ID: "r1", Capacity: 30}},
		Classes:  []ClassDemand{{ID: "c1", Subject: "Mathematics", SessionsPerWeek: 2}},
		Limits:   Limits{MaxPerDay: 6, MaxPerWeek: 30, NumShifts: 1},
	}

	first := Fingerprint(req)
	second := Fingerprint(req)
	require.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestFingerprintOrderInsensitive(t *testing.T) {
	a := ScheduleRequest{
		Teachers: []Teacher{
			{ID: "t1", Major: "Mathematics", Unavailable: []Slot{{Day: 1, Period: 2}, {Day: 0, Period: 0}}},
			{ID: "t2", Major: "English"},
		},
		Rooms:   []Room{{ID: "r1", Capacity: 30}, {ID: "r2", Capacity: 40}},
		Classes: []ClassDemand{{ID: "c1", Subject: "Mathematics", SessionsPerWeek: 2}, {ID: "c2", Subject: "English", SessionsPerWeek: 1}},
	}
	b := ScheduleRequest{
		Teachers: []Teacher{
			{ID: "t2", Major: "English"},
			{ID: "t1", Major: "Mathematics", Unavailable: []Slot{{Day: 0, Period: 0}, {Day: 1, Period: 2}}},
		},
		Rooms:   []Room{{ID: "r2", Capacity: 40}, {ID: "r1", Capacity: 30}},
		Classes: []ClassDemand{{ID: "c2", Subject: "English", SessionsPerWeek: 1}, {ID: "c1", Subject: "Mathematics", SessionsPerWeek: 2}},
	}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintContentSensitive(t *testing.T) {
	base := ScheduleRequest{
		Teachers: []Teacher{{ID: "t1", Major: "Mathematics"}},
		Rooms:    []Room{{ID: "r1", Capacity: 30}},
		Classes:  []ClassDemand{{ID: "c1", Subject: "Mathematics", SessionsPerWeek: 2}},
		Limits:   Limits{MaxPerDay: 6},
	}

	changedClass := base
	changedClass.Classes = []ClassDemand{{ID: "c1", Subject: "Mathematics", SessionsPerWeek: 3}}
	assert.NotEqual(t, Fingerprint(base), Fingerprint(changedClass))

	changedLimits := base
	changedLimits.Limits.MaxPerDay = 5
	assert.NotEqual(t, Fingerprint(base), Fingerprint(changedLimits))
}

func TestFingerprintDoesNotMutateInput(t *testing.T) {
	req := ScheduleRequest{
		Teachers: []Teacher{{ID: "t2"}, {ID: "t1"}},
		Rooms:    []Room{{ID: "r2"}, {ID: "r1"}},
		Classes:  []ClassDemand{{ID: "c2"}, {ID: "c1"}},
	}

	Fingerprint(req)
	assert.Equal(t, "t2", req.Teachers[0].ID)
	assert.Equal(t, "r2", req.Rooms[0].ID)
	assert.Equal(t, "c2", req.Classes[0].ID)
}
