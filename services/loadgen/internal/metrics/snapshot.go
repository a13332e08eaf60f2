package metrics

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/shestoi/sample-app/services/loadgen/internal/threshold"
)

// Check счётчики одной проверки
type Check struct {
	Name   string `json:"name"`
	Passes int64  `json:"passes"`
	Fails  int64  `json:"fails"`
}

// Trend распределение длительностей запросов, миллисекунды
type Trend struct {
	samples stats.Float64Data
	Count   int     `json:"count"`
	Avg     float64 `json:"avg"`
	Min     float64 `json:"min"`
	Med     float64 `json:"med"`
	Max     float64 `json:"max"`
	P90     float64 `json:"p(90)"`
	P95     float64 `json:"p(95)"`
}

// NewTrend считает сводку по выборке; выборка копируется
func NewTrend(samples []float64) Trend {
	t := Trend{samples: append(stats.Float64Data(nil), samples...), Count: len(samples)}
	if t.Count == 0 {
		return t
	}
	t.Avg, _ = stats.Mean(t.samples)
	t.Min, _ = stats.Min(t.samples)
	t.Med, _ = stats.Median(t.samples)
	t.Max, _ = stats.Max(t.samples)
	t.P90, _ = t.Percentile(90)
	t.P95, _ = t.Percentile(95)
	return t
}

// Percentile произвольный перцентиль выборки
func (t Trend) Percentile(p float64) (float64, error) {
	if t.Count == 0 {
		return 0, threshold.ErrNoData
	}
	if t.Count == 1 {
		return t.samples[0], nil
	}
	v, err := stats.Percentile(t.samples, p)
	if err != nil {
		// stats.Percentile отказывается считать, когда p*n < 1: берём минимум
		return stats.Min(t.samples)
	}
	return v, nil
}

// Snapshot итоговые метрики прогона
type Snapshot struct {
	Durations             Trend
	Requests              int64
	FailedRequests        int64
	Iterations            int64
	InterruptedIterations int64
	Checks                []Check
	VUs                   int
	Elapsed               time.Duration
}

// FailedRate доля проваленных запросов
func (s Snapshot) FailedRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.FailedRequests) / float64(s.Requests)
}

// CheckTotals сумма по всем проверкам
func (s Snapshot) CheckTotals() (passes, fails int64) {
	for _, c := range s.Checks {
		passes += c.Passes
		fails += c.Fails
	}
	return passes, fails
}

// Aggregate реализует threshold.Aggregator
func (s Snapshot) Aggregate(metric, aggregation string, percentile float64) (float64, error) {
	switch metric {
	case threshold.MetricReqDuration:
		if s.Durations.Count == 0 {
			return 0, threshold.ErrNoData
		}
		switch aggregation {
		case threshold.AggAvg:
			return s.Durations.Avg, nil
		case threshold.AggMin:
			return s.Durations.Min, nil
		case threshold.AggMax:
			return s.Durations.Max, nil
		case threshold.AggMed:
			return s.Durations.Med, nil
		case threshold.AggPercentile:
			return s.Durations.Percentile(percentile)
		}
	case threshold.MetricReqFailed:
		if s.Requests == 0 {
			return 0, threshold.ErrNoData
		}
		if aggregation == threshold.AggRate {
			return s.FailedRate(), nil
		}
	case threshold.MetricChecks:
		passes, fails := s.CheckTotals()
		if passes+fails == 0 {
			return 0, threshold.ErrNoData
		}
		if aggregation == threshold.AggRate {
			return float64(passes) / float64(passes+fails), nil
		}
	}
	return 0, fmt.Errorf("unsupported aggregation %s for %s", aggregation, metric)
}
