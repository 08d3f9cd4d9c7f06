package engine

// DefaultComplexityThreshold is the teacher-class pairing count above which
// the exact solve is abandoned for the greedy heuristic. Tunable via config;
// the value is an operational heuristic, not an architectural constant.
const DefaultComplexityThreshold = 100

// Estimator selects a scheduling strategy from the problem-size signal.
// The LP variable count grows with teachers x classes x shifts x periods, so
// large inputs cannot finish an exact solve inside the deadline; the engine
// trades optimality for guaranteed termination as the problem grows.
type Estimator struct {
	Threshold int
}

// Select picks GREEDY when the pairing count exceeds the threshold, LP
// otherwise.
func (e Estimator) Select(req ScheduleRequest) Strategy {
	threshold := e.Threshold
	if threshold <= 0 {
		threshold = DefaultComplexityThreshold
	}
	if len(req.Teachers)*len(req.Classes) > threshold {
		return StrategyGreedy
	}
	return StrategyLP
}
