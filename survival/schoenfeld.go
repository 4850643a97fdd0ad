package survival

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// proportionalHazardsPValue tests the proportional hazards assumption by
// correlating the Schoenfeld residuals with event time. Under the null the
// statistic d*r^2, with d the number of events and r the residual-time
// correlation, is approximately chi-squared with one degree of freedom. A
// test that cannot be formed (fewer than three events, zero residual
// variance) reports 1, leaving the assumption unchallenged.
func proportionalHazardsPValue(subjects []subject, beta float64) float64 {
	residuals, eventTimes := schoenfeldResiduals(subjects, beta)
	if len(residuals) < 3 {
		return 1
	}

	r := stat.Correlation(eventTimes, residuals, nil)
	if math.IsNaN(r) {
		return 1
	}

	chi2 := float64(len(residuals)) * r * r
	dist := distuv.ChiSquared{K: 1}
	return dist.Survival(chi2)
}

// schoenfeldResiduals computes, for each event, the difference between the
// subject's covariate and the risk-set expectation under the fitted model.
// Subjects must be sorted by ascending time.
func schoenfeldResiduals(subjects []subject, beta float64) (residuals, eventTimes []float64) {
	n := len(subjects)

	s0 := make([]float64, n+1)
	s1 := make([]float64, n+1)
	for i := n - 1; i >= 0; i-- {
		w := math.Exp(subjects[i].x * beta)
		s0[i] = s0[i+1] + w
		s1[i] = s1[i+1] + subjects[i].x*w
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
			residuals = append(residuals, subjects[k].x-s1[i]/s0[i])
			eventTimes = append(eventTimes, subjects[k].time)
		}
		i = j
	}
	return residuals, eventTimes
}
