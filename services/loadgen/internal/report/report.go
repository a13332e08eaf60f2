package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shestoi/sample-app/services/loadgen/internal/metrics"
	"github.com/shestoi/sample-app/services/loadgen/internal/threshold"
)

// Summary итог прогона для вывода
type Summary struct {
	Target                string             `json:"target"`
	VUs                   int                `json:"vus"`
	Elapsed               string             `json:"elapsed"`
	Requests              int64              `json:"http_reqs"`
	RequestsPerSecond     float64            `json:"http_reqs_per_second"`
	FailedRequests        int64              `json:"http_req_failed"`
	FailedRate            float64            `json:"http_req_failed_rate"`
	Iterations            int64              `json:"iterations"`
	InterruptedIterations int64              `json:"interrupted_iterations"`
	Duration              metrics.Trend      `json:"http_req_duration"`
	Checks                []metrics.Check    `json:"checks"`
	Thresholds            []threshold.Result `json:"thresholds"`
	Passed                bool               `json:"passed"`
}

// NewSummary собирает Summary из снимка метрик и результатов порогов
func NewSummary(target string, snap metrics.Snapshot, results []threshold.Result) Summary {
	s := Summary{
		Target:                target,
		VUs:                   snap.VUs,
		Elapsed:               snap.Elapsed.Round(time.Millisecond).String(),
		Requests:              snap.Requests,
		FailedRequests:        snap.FailedRequests,
		FailedRate:            snap.FailedRate(),
		Iterations:            snap.Iterations,
		InterruptedIterations: snap.InterruptedIterations,
		Duration:              snap.Durations,
		Checks:                snap.Checks,
		Thresholds:            results,
		Passed:                threshold.AllPassed(results),
	}
	if secs := snap.Elapsed.Seconds(); secs > 0 {
		s.RequestsPerSecond = float64(snap.Requests) / secs
	}
	return s
}

// Print выводит Summary: JSON или таблицу в духе k6
func Print(w io.Writer, s Summary, jsonMode bool) error {
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "target\t%s\n", s.Target)
	fmt.Fprintf(tw, "vus\t%d\n", s.VUs)
	fmt.Fprintf(tw, "elapsed\t%s\n", s.Elapsed)
	fmt.Fprintln(tw, "\t")

	for _, c := range s.Checks {
		mark := "✓"
		if c.Fails > 0 {
			mark = "✗"
		}
		fmt.Fprintf(tw, "%s %s\t✓ %d  ✗ %d\n", mark, c.Name, c.Passes, c.Fails)
	}
	fmt.Fprintln(tw, "\t")

	d := s.Duration
	fmt.Fprintf(tw, "http_req_duration\tavg=%s min=%s med=%s max=%s p(90)=%s p(95)=%s\n",
		ms(d.Avg), ms(d.Min), ms(d.Med), ms(d.Max), ms(d.P90), ms(d.P95))
	fmt.Fprintf(tw, "http_req_failed\t%.2f%%  %d of %d\n", s.FailedRate*100, s.FailedRequests, s.Requests)
	fmt.Fprintf(tw, "http_reqs\t%d  %.2f/s\n", s.Requests, s.RequestsPerSecond)
	fmt.Fprintf(tw, "iterations\t%d  interrupted %d\n", s.Iterations, s.InterruptedIterations)

	if len(s.Thresholds) > 0 {
		fmt.Fprintln(tw, "\t")
		fmt.Fprintln(tw, "thresholds\t")
		for _, r := range s.Thresholds {
			fmt.Fprintf(tw, "  %s %s\t%s\n", thresholdMark(r), r.Threshold.String(), observed(r))
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if !s.Passed {
		_, err := fmt.Fprintf(w, "\nthresholds on metrics '%s' have been crossed\n", strings.Join(crossed(s.Thresholds), "', '"))
		return err
	}
	return nil
}

func thresholdMark(r threshold.Result) string {
	if r.Passed {
		return "✓"
	}
	return "✗"
}

func observed(r threshold.Result) string {
	if r.NoData {
		return "no data"
	}
	if r.Metric == threshold.MetricReqDuration {
		return ms(r.Observed)
	}
	return fmt.Sprintf("%.4f", r.Observed)
}

func crossed(results []threshold.Result) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range results {
		if !r.Passed && !seen[r.Metric] {
			seen[r.Metric] = true
			out = append(out, r.Metric)
		}
	}
	return out
}

// ms форматирует миллисекунды как в k6: 1.23ms, 512µs
func ms(v float64) string {
	return time.Duration(v * float64(time.Millisecond)).Round(time.Microsecond).String()
}
