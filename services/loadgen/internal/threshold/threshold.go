// Package threshold разбирает и проверяет пороги прогона в стиле k6:
// "p(95)<500", "avg<=200", "http_req_failed:rate<0.01".
//
// Выражение без префикса метрики относится к http_req_duration (миллисекунды).
package threshold

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Метрики, на которые можно повесить порог
const (
	MetricReqDuration = "http_req_duration"
	MetricReqFailed   = "http_req_failed"
	MetricChecks      = "checks"
)

// Агрегации
const (
	AggAvg        = "avg"
	AggMin        = "min"
	AggMax        = "max"
	AggMed        = "med"
	AggPercentile = "p"
	AggRate       = "rate"
)

// ErrInvalidExpression выражение порога не разобрано
var ErrInvalidExpression = errors.New("invalid threshold expression")

var exprRe = regexp.MustCompile(`^(avg|min|max|med|rate|p\(\s*(\d+(?:\.\d+)?)\s*\))\s*(<=|>=|==|!=|<|>)\s*(-?\d+(?:\.\d+)?)$`)

// Threshold разобранный порог
type Threshold struct {
	// Source исходное выражение без префикса метрики, как его печатает отчёт
	Source      string
	Metric      string
	Aggregation string
	// Percentile заполнен только для AggPercentile, 0 < Percentile <= 100
	Percentile float64
	Op         string
	Value      float64
}

// Parse разбирает выражение "[metric:]agg op number"
func Parse(expr string) (Threshold, error) {
	metric := MetricReqDuration
	body := strings.TrimSpace(expr)
	if name, rest, ok := strings.Cut(body, ":"); ok {
		metric = strings.TrimSpace(name)
		body = strings.TrimSpace(rest)
	}

	m := exprRe.FindStringSubmatch(body)
	if m == nil {
		return Threshold{}, fmt.Errorf("%w: %q", ErrInvalidExpression, expr)
	}

	t := Threshold{
		Source:      body,
		Metric:      metric,
		Aggregation: m[1],
		Op:          m[3],
	}
	value, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, expr, err)
	}
	t.Value = value

	if m[2] != "" {
		pct, err := strconv.ParseFloat(m[2], 64)
		if err != nil || pct <= 0 || pct > 100 {
			return Threshold{}, fmt.Errorf("%w: %q: percentile must be in (0, 100]", ErrInvalidExpression, expr)
		}
		t.Aggregation = AggPercentile
		t.Percentile = pct
	}

	if err := t.validateMetric(); err != nil {
		return Threshold{}, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, expr, err)
	}
	return t, nil
}

// ParseAll разбирает список выражений, первая ошибка прерывает разбор
func ParseAll(exprs []string) ([]Threshold, error) {
	out := make([]Threshold, 0, len(exprs))
	for _, e := range exprs {
		if strings.TrimSpace(e) == "" {
			continue
		}
		t, err := Parse(e)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (t Threshold) validateMetric() error {
	switch t.Metric {
	case MetricReqDuration:
		if t.Aggregation == AggRate {
			return fmt.Errorf("%s supports avg/min/max/med/p(N), not rate", t.Metric)
		}
	case MetricReqFailed, MetricChecks:
		if t.Aggregation != AggRate {
			return fmt.Errorf("%s supports only rate", t.Metric)
		}
	default:
		return fmt.Errorf("unknown metric %q", t.Metric)
	}
	return nil
}

// String печатает порог в исходной форме с метрикой
func (t Threshold) String() string {
	return t.Metric + ":" + t.Source
}

// Holds сравнивает наблюдаемое значение с порогом
func (t Threshold) Holds(observed float64) bool {
	switch t.Op {
	case "<":
		return observed < t.Value
	case "<=":
		return observed <= t.Value
	case ">":
		return observed > t.Value
	case ">=":
		return observed >= t.Value
	case "==":
		return observed == t.Value
	case "!=":
		return observed != t.Value
	}
	return false
}
