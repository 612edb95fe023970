package eval

import (
	"fmt"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
	"github.com/danielpatrickdp/balance-strategy/internal/layout"
	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

// Metric names.
const (
	MetricCoverage      = "signature_coverage"
	MetricMalformed     = "malformed_layouts"
	MetricMirrors       = "mirror_duplicates"
	MetricSymmetry      = "light_heavy_symmetry"
	MetricMonotone      = "pure_direction_monotone"
	MetricPredicted     = "predicted_steps"
	MetricUninformative = "uninformative_signatures"
)

// #region eval-harness
// EvalHarness audits a strategy table before it is saved.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run checks the table's structure and costs. Every count metric passes at
// zero; the uninformative count is reported but never fails the audit.
func (h *EvalHarness) Run(t *strategy.Table) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	check := func(name string, value int, pass bool, reason string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass})
		if !pass {
			failReasons = append(failReasons, reason)
		}
	}

	// 1. Every planned signature is present.
	missing := missingSignatures(t)
	check(MetricCoverage, missing, missing == 0,
		fmt.Sprintf("%d signatures missing", missing))

	// 2. Layouts are balanced, non-empty and keep genuine coins off pan A and
	// within the genuine supply.
	malformed := malformedLayouts(t)
	check(MetricMalformed, malformed, malformed == 0,
		fmt.Sprintf("%d malformed layouts", malformed))

	// 3. No layout appears twice, directly or mirrored.
	mirrors := mirrorDuplicates(t)
	check(MetricMirrors, mirrors, mirrors == 0,
		fmt.Sprintf("%d mirror duplicates", mirrors))

	// 4. HEAVY-n rows are the relabeled LIGHT-n rows.
	asym := asymmetricSignatures(t)
	check(MetricSymmetry, asym, asym == 0,
		fmt.Sprintf("%d signatures break light/heavy symmetry", asym))

	// 5. Pure-direction worst cases never shrink as n grows.
	drops := monotoneViolations(t)
	check(MetricMonotone, drops, drops == 0,
		fmt.Sprintf("%d pure-direction worst cases decrease", drops))

	// 6. The start signature fits the step budget.
	predicted, err := t.WorstCase(t.StartSignature())
	if err != nil {
		predicted = strategy.NoInformation
	}
	within := h.config.MaxSteps <= 0 || predicted <= h.config.MaxSteps
	check(MetricPredicted, predicted, within,
		fmt.Sprintf("predicted %d steps exceeds %d", predicted, h.config.MaxSteps))

	// 7. Informational only: small populations legitimately contain dead ends.
	metrics = append(metrics, EvalMetric{
		Name:  MetricUninformative,
		Value: uninformative(t),
		Pass:  true,
	})

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region checks
func missingSignatures(t *strategy.Table) int {
	// No signature is planned below two coins, so the start signature is
	// counted on its own.
	if t.Population < 2 {
		return 1
	}
	missing := 0
	for n := 2; n <= t.Population; n++ {
		var u layout.Counts
		u[coin.Unresolved] = n
		if _, ok := t.Entries(u.Signature()); !ok {
			missing++
		}
		for light := 0; light <= n; light++ {
			var c layout.Counts
			c[coin.SuspectLight] = light
			c[coin.SuspectHeavy] = n - light
			if _, ok := t.Entries(c.Signature()); !ok {
				missing++
			}
		}
	}
	return missing
}

func malformedLayouts(t *strategy.Table) int {
	bad := 0
	for _, sig := range t.Signatures() {
		counts, err := layout.ParseSignature(sig)
		if err != nil {
			bad++
			continue
		}
		genuine := t.Population - counts.Suspects().Total()
		entries, _ := t.Entries(sig)
		for _, e := range entries {
			l := e.Layout
			_, b := l.Counts()
			if l.Size() == 0 || !l.Balanced() || !l.Canonical() || b[coin.Genuine] > genuine {
				bad++
				continue
			}
			if e.WorstCase < 1 || e.WorstCase > strategy.NoInformation {
				bad++
			}
		}
	}
	return bad
}

func mirrorDuplicates(t *strategy.Table) int {
	dups := 0
	for _, sig := range t.Signatures() {
		seen := make(map[string]bool)
		entries, _ := t.Entries(sig)
		for _, e := range entries {
			fp := e.Layout.Fingerprint()
			if seen[fp] || seen[e.Layout.Mirror().Fingerprint()] {
				dups++
				continue
			}
			seen[fp] = true
		}
	}
	return dups
}

func asymmetricSignatures(t *strategy.Table) int {
	bad := 0
	for n := 2; n <= t.Population; n++ {
		var light layout.Counts
		light[coin.SuspectLight] = n
		src, ok1 := t.Entries(light.Signature())
		dst, ok2 := t.Entries(light.Opposite().Signature())
		if !ok1 || !ok2 {
			continue
		}
		if len(src) != len(dst) {
			bad++
			continue
		}
		for i := range src {
			if src[i].Layout.Opposite().Fingerprint() != dst[i].Layout.Fingerprint() || src[i].WorstCase != dst[i].WorstCase {
				bad++
				break
			}
		}
	}
	return bad
}

func monotoneViolations(t *strategy.Table) int {
	drops := 0
	for _, s := range []coin.BeliefState{coin.SuspectLight, coin.SuspectHeavy} {
		prev := 0
		for n := 2; n <= t.Population; n++ {
			var c layout.Counts
			c[s] = n
			w, err := t.WorstCase(c.Signature())
			if err != nil {
				continue
			}
			if w < prev {
				drops++
			}
			prev = w
		}
	}
	return drops
}

func uninformative(t *strategy.Table) int {
	n := 0
	for _, sig := range t.Signatures() {
		if best, err := t.Best(sig); err == nil && !best.Informative() {
			n++
		}
	}
	return n
}

// #endregion checks
