package metrics

import (
	"sync"
	"time"
)

// Sink собирает метрики прогона со всех VU.
// Единственное общее состояние между VU, поэтому под mutex.
type Sink struct {
	mu          sync.Mutex
	durations   []float64 // миллисекунды
	requests    int64
	failed      int64
	iterations  int64
	interrupted int64
	checks      map[string]*Check
	checkOrder  []string
}

// NewSink создаёт пустой Sink
func NewSink() *Sink {
	return &Sink{checks: make(map[string]*Check)}
}

// AddRequest учитывает запрос, на который пришёл ответ
func (s *Sink) AddRequest(d time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, float64(d)/float64(time.Millisecond))
	s.requests++
	if failed {
		s.failed++
	}
}

// AddTransportError учитывает запрос без ответа (connection refused, timeout):
// он провален, но в длительность не попадает
func (s *Sink) AddTransportError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	s.failed++
}

// AddCheck учитывает результат проверки; провал не прерывает итерацию
func (s *Sink) AddCheck(name string, passed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.checks[name]
	if !ok {
		c = &Check{Name: name}
		s.checks[name] = c
		s.checkOrder = append(s.checkOrder, name)
	}
	if passed {
		c.Passes++
	} else {
		c.Fails++
	}
}

// AddIteration учитывает завершённую итерацию
func (s *Sink) AddIteration() {
	s.mu.Lock()
	s.iterations++
	s.mu.Unlock()
}

// AddInterrupted учитывает итерацию, прерванную по hard stop
func (s *Sink) AddInterrupted() {
	s.mu.Lock()
	s.interrupted++
	s.mu.Unlock()
}

// Snapshot копирует текущее состояние
func (s *Sink) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	checks := make([]Check, 0, len(s.checkOrder))
	for _, name := range s.checkOrder {
		checks = append(checks, *s.checks[name])
	}

	return Snapshot{
		Durations:             NewTrend(s.durations),
		Requests:              s.requests,
		FailedRequests:        s.failed,
		Iterations:            s.iterations,
		InterruptedIterations: s.interrupted,
		Checks:                checks,
	}
}
