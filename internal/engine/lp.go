package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for the LP path. Both are recovered by the coordinator
// via greedy fallback and never surfaced raw.
var (
	// ErrModelInfeasible means the solver proved no assignment satisfies
	// the hard constraints.
	ErrModelInfeasible = errors.New("lp model infeasible")
	// ErrSolverUnavailable means the external solver failed to start,
	// crashed, or produced unreadable output.
	ErrSolverUnavailable = errors.New("lp solver unavailable")
)

const (
	// DefaultSolverTimeout bounds one solver invocation.
	DefaultSolverTimeout = 15 * time.Second
	// DefaultSolverGap is the accepted relative optimality gap; the solver
	// returns its best incumbent once within this distance of the bound.
	DefaultSolverGap = 0.2
	// DefaultSolverPath resolves the CBC binary from PATH.
	DefaultSolverPath = "cbc"

	// solverKillGrace is added to the exec context beyond the solver's own
	// -seconds limit so a well-behaved solver exits before being killed.
	solverKillGrace = 5 * time.Second
)

// lpVariable is one binary decision: place this occurrence with this
// teacher in this room at this slot.
type lpVariable struct {
	teacher    Teacher
	class      ClassDemand
	room       Room
	day        int
	period     int
	duration   int
	occurrence int
	tier       QualificationTier
}

func (v lpVariable) name(idx int) string {
	return "x" + strconv.Itoa(idx)
}

// LPOptimizer formulates the assignment problem as a binary program and
// delegates the solve to an external CBC process under a hard wall-clock
// limit. On timeout the solver's best incumbent feasible solution is used.
type LPOptimizer struct {
	Checker    Checker
	Weights    map[string]int
	SolverPath string
	Timeout    time.Duration
	Gap        float64
	Logger     *zap.Logger
}

// Schedule builds and solves the model. It returns ErrModelInfeasible when
// the solver proves infeasibility and ErrSolverUnavailable for any solver
// start/crash/parse failure; callers fall back to the greedy path on both.
func (o LPOptimizer) Schedule(ctx context.Context, req ScheduleRequest) (ScheduleResult, error) {
	start := time.Now()
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	vars := o.buildVariables(req)
	if len(vars) == 0 {
		if req.TotalOccurrences() == 0 {
			return ScheduleResult{Status: StatusComplete, Strategy: StrategyLP, Elapsed: time.Since(start)}, nil
		}
		return ScheduleResult{}, fmt.Errorf("no feasible variables after pre-filtering: %w", ErrModelInfeasible)
	}

	model := o.writeModel(req, vars)

	dir, err := os.MkdirTemp("", "sigasig-lp-*")
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("create solver workspace: %w", ErrSolverUnavailable)
	}
	defer os.RemoveAll(dir)

	modelPath := filepath.Join(dir, "model.lp")
	solutionPath := filepath.Join(dir, "model.sol")
	if err := os.WriteFile(modelPath, []byte(model), 0o600); err != nil {
		return ScheduleResult{}, fmt.Errorf("write model file: %w", ErrSolverUnavailable)
	}

	selected, err := o.invokeSolver(ctx, logger, modelPath, solutionPath, len(vars))
	if err != nil {
		return ScheduleResult{}, err
	}

	assignments := make([]Assignment, 0, len(selected))
	placed := make(map[string]map[int]bool, len(req.Classes))
	for _, idx := range selected {
		v := vars[idx]
		assignments = append(assignments, Assignment{
			TeacherID:  v.teacher.ID,
			ClassID:    v.class.ID,
			Subject:    v.class.Subject,
			RoomID:     v.room.ID,
			Day:        v.day,
			Period:     v.period,
			Duration:   v.duration,
			Occurrence: v.occurrence,
		})
		if placed[v.class.ID] == nil {
			placed[v.class.ID] = make(map[int]bool)
		}
		placed[v.class.ID][v.occurrence] = true
	}

	var unassigned []OccurrenceRef
	for _, class := range req.Classes {
		for occ := 1; occ <= class.SessionsPerWeek; occ++ {
			if !placed[class.ID][occ] {
				unassigned = append(unassigned, OccurrenceRef{ClassID: class.ID, Subject: class.Subject, Occurrence: occ})
			}
		}
	}

	status := StatusComplete
	switch {
	case len(assignments) == 0 && req.TotalOccurrences() > 0:
		return ScheduleResult{}, fmt.Errorf("solver selected no assignments: %w", ErrModelInfeasible)
	case len(unassigned) > 0:
		status = StatusPartial
	}

	return ScheduleResult{
		Assignments: assignments,
		Status:      status,
		Strategy:    StrategyLP,
		Elapsed:     time.Since(start),
		Unassigned:  unassigned,
	}, nil
}

// buildVariables pre-filters the decision space: only qualified teachers,
// fitting rooms, open teacher slots, and shift-legal period ranges produce
// variables.
func (o LPOptimizer) buildVariables(req ScheduleRequest) []lpVariable {
	var vars []lpVariable
	for _, class := range req.Classes {
		duration := class.Duration
		if duration < 1 {
			duration = 1
		}
		for _, teacher := range req.Teachers {
			tier := o.Checker.Qualifies(teacher, class.Subject)
			if !o.Checker.Eligible(tier) {
				continue
			}
			for _, room := range req.Rooms {
				if !o.Checker.FitsCapacity(room, class) {
					continue
				}
				for day := range Days {
					for period := 0; period+duration-1 < NumPeriods; period++ {
						if !o.Checker.FitsShift(req.Limits, class, room, period, duration) {
							continue
						}
						open := true
						for p := period; p < period+duration; p++ {
							if !teacher.Available(day, p) {
								open = false
								break
							}
						}
						if !open {
							continue
						}
						for occ := 1; occ <= class.SessionsPerWeek; occ++ {
							vars = append(vars, lpVariable{
								teacher:    teacher,
								class:      class,
								room:       room,
								day:        day,
								period:     period,
								duration:   duration,
								occurrence: occ,
								tier:       tier,
							})
						}
					}
				}
			}
		}
	}
	return vars
}

// writeModel renders the binary program in CPLEX LP format. The objective
// rewards exact-major matches and high-importance subjects.
func (o LPOptimizer) writeModel(req ScheduleRequest, vars []lpVariable) string {
	var b strings.Builder
	b.WriteString("\\ teacher-class assignment model\n")
	b.WriteString("Maximize\n obj:")
	for i, v := range vars {
		weight := o.objectiveWeight(v)
		fmt.Fprintf(&b, " +%d %s", weight, v.name(i))
	}
	b.WriteString("\nSubject To\n")

	constraint := 0
	emit := func(terms []string, op string, rhs int) {
		if len(terms) == 0 {
			return
		}
		fmt.Fprintf(&b, " c%d: %s %s %d\n", constraint, strings.Join(terms, " + "), op, rhs)
		constraint++
	}

	// Each occurrence is scheduled exactly once.
	for _, class := range req.Classes {
		for occ := 1; occ <= class.SessionsPerWeek; occ++ {
			var terms []string
			for i, v := range vars {
				if v.class.ID == class.ID && v.occurrence == occ {
					terms = append(terms, v.name(i))
				}
			}
			emit(terms, "=", 1)
		}
	}

	// A teacher occupies at most one session per period.
	for _, teacher := range req.Teachers {
		for day := range Days {
			for period := 0; period < NumPeriods; period++ {
				var terms []string
				for i, v := range vars {
					if v.teacher.ID == teacher.ID && v.covers(day, period) {
						terms = append(terms, v.name(i))
					}
				}
				emit(terms, "<=", 1)
			}
		}
	}

	// A room hosts at most one session per period.
	for _, room := range req.Rooms {
		for day := range Days {
			for period := 0; period < NumPeriods; period++ {
				var terms []string
				for i, v := range vars {
					if v.room.ID == room.ID && v.covers(day, period) {
						terms = append(terms, v.name(i))
					}
				}
				emit(terms, "<=", 1)
			}
		}
	}

	// Daily and weekly hour ceilings, duration weighted.
	for _, teacher := range req.Teachers {
		maxDay := req.Limits.MaxPerDay
		if teacher.MaxHoursPerDay > 0 {
			maxDay = teacher.MaxHoursPerDay
		}
		maxWeek := req.Limits.MaxPerWeek
		if teacher.MaxHoursPerWeek > 0 {
			maxWeek = teacher.MaxHoursPerWeek
		}
		if maxDay > 0 {
			for day := range Days {
				var terms []string
				for i, v := range vars {
					if v.teacher.ID == teacher.ID && v.day == day {
						terms = append(terms, fmt.Sprintf("%d %s", v.duration, v.name(i)))
					}
				}
				emit(terms, "<=", maxDay)
			}
		}
		if maxWeek > 0 {
			var terms []string
			for i, v := range vars {
				if v.teacher.ID == teacher.ID {
					terms = append(terms, fmt.Sprintf("%d %s", v.duration, v.name(i)))
				}
			}
			emit(terms, "<=", maxWeek)
		}
	}

	b.WriteString("Binaries\n")
	for i, v := range vars {
		b.WriteString(" ")
		b.WriteString(v.name(i))
	}
	b.WriteString("\nEnd\n")
	return b.String()
}

func (v lpVariable) covers(day, period int) bool {
	return v.day == day && period >= v.period && period < v.period+v.duration
}

func (o LPOptimizer) objectiveWeight(v lpVariable) int {
	tierScore := 0
	switch v.tier {
	case TierExactMajor:
		tierScore = 2
	case TierMinor:
		tierScore = 1
	}
	importance := SubjectWeight(o.Weights, v.class.Subject)
	bonus := defaultSubjectWeight - importance
	if bonus < 0 {
		bonus = 0
	}
	return tierScore*10 + bonus + 1
}

// invokeSolver runs the CBC binary against the model file and returns the
// indexes of the selected variables. The argument shape mirrors the CBC
// command wrapper used by the original system.
func (o LPOptimizer) invokeSolver(ctx context.Context, logger *zap.Logger, modelPath, solutionPath string, varCount int) ([]int, error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultSolverTimeout
	}
	gap := o.Gap
	if gap <= 0 {
		gap = DefaultSolverGap
	}
	binary := o.SolverPath
	if binary == "" {
		binary = DefaultSolverPath
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout+solverKillGrace)
	defer cancel()

	args := []string{
		modelPath,
		"-seconds", strconv.FormatFloat(timeout.Seconds(), 'f', 0, 64),
		"-ratioGap", strconv.FormatFloat(gap, 'f', 2, 64),
		"branch",
		"printingOptions", "all",
		"solution", solutionPath,
	}
	cmd := exec.CommandContext(runCtx, binary, args...)

	started := time.Now()
	output, err := cmd.CombinedOutput()
	logger.Debug("solver finished",
		zap.String("binary", binary),
		zap.Int("variables", varCount),
		zap.Duration("took", time.Since(started)),
		zap.Error(err),
	)
	if err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("solver exceeded %s and was killed: %w", timeout, ErrSolverUnavailable)
		}
		return nil, fmt.Errorf("solver execution failed: %v (output: %s): %w", err, truncate(string(output), 256), ErrSolverUnavailable)
	}

	return parseSolution(solutionPath)
}

// parseSolution reads a CBC solution file. The header line carries the
// solve status; the remaining lines list nonzero variables as
// "<index> <name> <value> <reduced cost>".
func parseSolution(path string) ([]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read solution file: %w", ErrSolverUnavailable)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("empty solution file: %w", ErrSolverUnavailable)
	}
	header := strings.ToLower(scanner.Text())
	if strings.Contains(header, "infeasible") {
		return nil, ErrModelInfeasible
	}
	if strings.Contains(header, "unbounded") {
		return nil, fmt.Errorf("unbounded model: %w", ErrSolverUnavailable)
	}

	var selected []int
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.HasPrefix(fields[1], "x") {
			continue
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || value < 0.5 {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(fields[1], "x"))
		if err != nil {
			continue
		}
		selected = append(selected, idx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan solution file: %w", ErrSolverUnavailable)
	}
	return selected, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
