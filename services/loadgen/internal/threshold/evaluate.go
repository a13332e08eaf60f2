package threshold

import "errors"

// ErrNoData у метрики нет ни одного значения
var ErrNoData = errors.New("no data")

// Aggregator отдаёт агрегированное значение метрики прогона
type Aggregator interface {
	Aggregate(metric, aggregation string, percentile float64) (float64, error)
}

// Result итог проверки одного порога
type Result struct {
	Threshold Threshold `json:"-"`
	Expr      string    `json:"expr"`
	Metric    string    `json:"metric"`
	Observed  float64   `json:"observed"`
	// NoData порог не проверялся: метрика пустая. Как в k6, такой порог не считается проваленным.
	NoData bool `json:"no_data,omitempty"`
	Passed bool `json:"passed"`
}

// Evaluate проверяет порог по агрегатору
func (t Threshold) Evaluate(a Aggregator) (Result, error) {
	res := Result{Threshold: t, Expr: t.Source, Metric: t.Metric}
	observed, err := a.Aggregate(t.Metric, t.Aggregation, t.Percentile)
	if errors.Is(err, ErrNoData) {
		res.NoData = true
		res.Passed = true
		return res, nil
	}
	if err != nil {
		return Result{}, err
	}
	res.Observed = observed
	res.Passed = t.Holds(observed)
	return res, nil
}

// EvaluateAll проверяет все пороги
func EvaluateAll(ts []Threshold, a Aggregator) ([]Result, error) {
	out := make([]Result, 0, len(ts))
	for _, t := range ts {
		r, err := t.Evaluate(a)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// AllPassed true, если ни один порог не провален
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
