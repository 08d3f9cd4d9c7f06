package engine

import (
	"context"
	"sort"
	"time"
)

// GreedyScheduler places occurrences one at a time in a deterministic
// priority order. It never backtracks a committed assignment, so its running
// time stays proportional to the occurrence count times the candidate slot
// count. Occurrences that cannot be placed are recorded and skipped rather
// than aborting the run.
type GreedyScheduler struct {
	Checker Checker
	// Weights overrides the built-in subject importance table.
	Weights map[string]int
}

// Schedule runs the heuristic over the whole request. The context bounds
// the run; on cancellation the remaining occurrences are reported
// unassigned and the partial result is returned.
func (g GreedyScheduler) Schedule(ctx context.Context, req ScheduleRequest) ScheduleResult {
	start := time.Now()

	classes := make([]ClassDemand, len(req.Classes))
	copy(classes, req.Classes)
	sort.Slice(classes, func(i, j int) bool {
		wi := SubjectWeight(g.Weights, classes[i].Subject)
		wj := SubjectWeight(g.Weights, classes[j].Subject)
		if wi != wj {
			return wi < wj
		}
		if classes[i].SessionsPerWeek != classes[j].SessionsPerWeek {
			return classes[i].SessionsPerWeek > classes[j].SessionsPerWeek
		}
		return classes[i].ID < classes[j].ID
	})

	rooms := make([]Room, len(req.Rooms))
	copy(rooms, req.Rooms)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	var (
		committed  []Assignment
		unassigned []OccurrenceRef
		weekly     = make(map[string]int, len(req.Teachers))
	)

	cancelled := false
	for _, class := range classes {
		for occ := 1; occ <= class.SessionsPerWeek; occ++ {
			if cancelled {
				unassigned = append(unassigned, OccurrenceRef{ClassID: class.ID, Subject: class.Subject, Occurrence: occ})
				continue
			}
			select {
			case <-ctx.Done():
				cancelled = true
				unassigned = append(unassigned, OccurrenceRef{ClassID: class.ID, Subject: class.Subject, Occurrence: occ})
				continue
			default:
			}

			assignment, ok := g.placeOccurrence(req, class, occ, rooms, committed, weekly)
			if !ok {
				unassigned = append(unassigned, OccurrenceRef{ClassID: class.ID, Subject: class.Subject, Occurrence: occ})
				continue
			}
			committed = append(committed, assignment)
			weekly[assignment.TeacherID] += assignment.Duration
		}
	}

	status := StatusComplete
	switch {
	case len(committed) == 0 && req.TotalOccurrences() > 0:
		status = StatusInfeasible
	case len(unassigned) > 0:
		status = StatusPartial
	}

	return ScheduleResult{
		Assignments: committed,
		Status:      status,
		Strategy:    StrategyGreedy,
		Elapsed:     time.Since(start),
		Unassigned:  unassigned,
	}
}

type greedyCandidate struct {
	teacher Teacher
	tier    QualificationTier
	load    int
}

// placeOccurrence ranks eligible teachers by qualification tier, then load
// ascending, then id, and commits the first feasible (day, period, room)
// slot in earliest-day, earliest-period, lowest-room order.
func (g GreedyScheduler) placeOccurrence(
	req ScheduleRequest,
	class ClassDemand,
	occurrence int,
	rooms []Room,
	committed []Assignment,
	weekly map[string]int,
) (Assignment, bool) {
	var candidates []greedyCandidate
	for _, t := range req.Teachers {
		tier := g.Checker.Qualifies(t, class.Subject)
		if !g.Checker.Eligible(tier) {
			continue
		}
		candidates = append(candidates, greedyCandidate{teacher: t, tier: tier, load: weekly[t.ID]})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].tier != candidates[j].tier {
			return candidates[i].tier > candidates[j].tier
		}
		if candidates[i].load != candidates[j].load {
			return candidates[i].load < candidates[j].load
		}
		return candidates[i].teacher.ID < candidates[j].teacher.ID
	})

	duration := class.Duration
	if duration < 1 {
		duration = 1
	}

	for _, cand := range candidates {
		for day := range Days {
			for period := 0; period+duration-1 < NumPeriods; period++ {
				if !g.teacherOpen(cand.teacher, day, period, duration) {
					continue
				}
				for _, room := range rooms {
					if !g.Checker.FitsCapacity(room, class) {
						continue
					}
					if !g.Checker.FitsShift(req.Limits, class, room, period, duration) {
						continue
					}
					candidate := Assignment{
						TeacherID:  cand.teacher.ID,
						ClassID:    class.ID,
						Subject:    class.Subject,
						RoomID:     room.ID,
						Day:        day,
						Period:     period,
						Duration:   duration,
						Occurrence: occurrence,
					}
					if !g.Checker.NoConflict(candidate, committed) {
						continue
					}
					if !g.Checker.WithinWorkload(cand.teacher, req.Limits, committed, candidate) {
						continue
					}
					return candidate, true
				}
			}
		}
	}
	return Assignment{}, false
}

func (g GreedyScheduler) teacherOpen(t Teacher, day, period, duration int) bool {
	for p := period; p < period+duration; p++ {
		if !t.Available(day, p) {
			return false
		}
	}
	return true
}
