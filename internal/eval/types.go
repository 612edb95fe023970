package eval

// #region eval-config
// EvalConfig holds thresholds for auditing a freshly built table.
type EvalConfig struct {
	MaxSteps int // reject if the start signature needs more weighings; 0 disables
}

// DefaultEvalConfig returns defaults that accept any table up to MaxPopulation.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MaxSteps: 0,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single audit check result.
type EvalMetric struct {
	Name  string
	Value int
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of a table audit.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// Metric returns the named metric.
func (r EvalResult) Metric(name string) (EvalMetric, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return EvalMetric{}, false
}

// #endregion eval-result
