// Package survival fits univariate Cox proportional hazards models to screen
// individual features against time-to-event outcomes.
package survival

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/oncostat/deltarad/pkg/errors"
	"github.com/oncostat/deltarad/pkg/log"
)

const (
	// maxIterations bounds the Newton-Raphson loop.
	maxIterations = 100
	// tolerance is the convergence threshold on the coefficient update.
	tolerance = 1e-9
	// betaDivergenceLimit flags monotone likelihood: on standardized inputs a
	// coefficient walking past this magnitude means the feature separates the
	// event groups and no finite estimate exists.
	betaDivergenceLimit = 15.0
	// minInformation guards against a degenerate (near-zero) observed
	// information, which would make the variance estimate meaningless.
	minInformation = 1e-10
)

// CoxResult holds a fitted univariate model for one feature. Coefficients
// are on the standardized scale: the hazard ratio is per one standard
// deviation of the feature in the fitting data.
type CoxResult struct {
	Feature     string
	Beta        float64
	SE          float64
	HR          float64
	CILower     float64
	CIUpper     float64
	PValue      float64
	PHPValue    float64
	PHViolation bool
	N           int
	Events      int
}

// subject is one observation after standardization, ordered for risk-set
// accumulation.
type subject struct {
	x     float64
	time  float64
	event bool
}

// FitUnivariate fits a single-feature Cox model by Newton-Raphson on the
// Breslow partial likelihood. The feature is standardized internally so the
// divergence check has a stable scale. A ConvergenceError is returned when
// the likelihood is monotone (perfect separation of event times by the
// feature) or the observed information degenerates.
func FitUnivariate(feature string, x, times []float64, events []int) (*CoxResult, error) {
	n := len(x)
	if n == 0 {
		return nil, errors.NewValueError("FitUnivariate", "empty input")
	}
	if len(times) != n || len(events) != n {
		return nil, errors.NewDimensionError("FitUnivariate", n, len(times), 0)
	}

	nEvents := 0
	for _, e := range events {
		if e != 0 {
			nEvents++
		}
	}
	if nEvents == 0 {
		return nil, errors.NewConvergenceError("cox", feature, 0, "no events in fitting data")
	}

	subjects, err := standardize(feature, x, times, events)
	if err != nil {
		return nil, err
	}

	beta := 0.0
	iterations := 0
	for ; iterations < maxIterations; iterations++ {
		score, info := scoreAndInformation(subjects, beta)
		if info < minInformation {
			return nil, errors.NewConvergenceError("cox", feature, iterations,
				"observed information is degenerate")
		}

		step := score / info
		beta += step

		if errors.CheckScalar("cox coefficient update", beta, iterations) != nil {
			return nil, errors.NewConvergenceError("cox", feature, iterations,
				"coefficient update is not finite")
		}
		if math.Abs(beta) > betaDivergenceLimit {
			return nil, errors.NewConvergenceError("cox", feature, iterations,
				"coefficient diverged, feature separates event times")
		}
		if math.Abs(step) < tolerance {
			break
		}
	}
	if iterations == maxIterations {
		return nil, errors.NewConvergenceError("cox", feature, iterations,
			"iteration limit reached")
	}

	_, info := scoreAndInformation(subjects, beta)
	if info < minInformation {
		return nil, errors.NewConvergenceError("cox", feature, iterations,
			"observed information is degenerate at the optimum")
	}
	se := 1.0 / math.Sqrt(info)

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	z := beta / se
	pValue := 2 * normal.Survival(math.Abs(z))
	// 95% CI on the log-hazard scale.
	margin := normal.Quantile(0.975) * se

	phP := proportionalHazardsPValue(subjects, beta)

	result := &CoxResult{
		Feature:     feature,
		Beta:        beta,
		SE:          se,
		HR:          math.Exp(beta),
		CILower:     math.Exp(beta - margin),
		CIUpper:     math.Exp(beta + margin),
		PValue:      pValue,
		PHPValue:    phP,
		PHViolation: phP < 0.05,
		N:           n,
		Events:      nEvents,
	}

	log.GetLoggerWithName("survival").Debug("cox fit converged",
		log.FeatureKey, feature,
		log.IterationKey, iterations,
		"hr", result.HR,
		"p_value", result.PValue)

	return result, nil
}

// standardize centers and scales the feature, returning subjects sorted by
// ascending time with events before censorings at tied times.
func standardize(feature string, x, times []float64, events []int) ([]subject, error) {
	mean := 0.0
	for _, v := range x {
		if math.IsNaN(v) {
			return nil, errors.NewValueError("FitUnivariate",
				"feature "+feature+" contains NaN, impute before fitting")
		}
		mean += v
	}
	mean /= float64(len(x))

	variance := 0.0
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(x))
	if variance < 1e-12 {
		return nil, errors.NewConvergenceError("cox", feature, 0, "feature is constant")
	}
	scale := math.Sqrt(variance)

	subjects := make([]subject, len(x))
	for i := range x {
		subjects[i] = subject{
			x:     (x[i] - mean) / scale,
			time:  times[i],
			event: events[i] != 0,
		}
	}
	sort.SliceStable(subjects, func(i, j int) bool {
		if subjects[i].time != subjects[j].time {
			return subjects[i].time < subjects[j].time
		}
		return subjects[i].event && !subjects[j].event
	})
	return subjects, nil
}

// scoreAndInformation evaluates the Breslow partial-likelihood score and
// observed information at beta. Subjects must be sorted by ascending time;
// the risk set at each event time is the suffix from that index on, with
// ties sharing one denominator.
func scoreAndInformation(subjects []subject, beta float64) (score, info float64) {
	n := len(subjects)

	// Suffix sums of exp(xb), x*exp(xb) and x^2*exp(xb).
	s0 := make([]float64, n+1)
	s1 := make([]float64, n+1)
	s2 := make([]float64, n+1)
	for i := n - 1; i >= 0; i-- {
		w := math.Exp(subjects[i].x * beta)
		s0[i] = s0[i+1] + w
		s1[i] = s1[i+1] + subjects[i].x*w
		s2[i] = s2[i+1] + subjects[i].x*subjects[i].x*w
	}

	i := 0
	for i < n {
		j := i
		for j < n && subjects[j].time == subjects[i].time {
			j++
		}
		for k := i; k < j; k++ {
			if !subjects[k].event {
				continue
			}
			xbar := s1[i] / s0[i]
			score += subjects[k].x - xbar
			info += s2[i]/s0[i] - xbar*xbar
		}
		i = j
	}
	return score, info
}
