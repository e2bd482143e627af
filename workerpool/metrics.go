package workerpool

import (
	"sync"
	"time"
)

// Metrics is a point-in-time copy of the pool counters.
type Metrics struct {
	Submitted int64         `json:"submitted"`
	Completed int64         `json:"completed"`
	Panicked  int64         `json:"panicked"`
	InFlight  int           `json:"in_flight"`
	QueueWait time.Duration `json:"queue_wait_ns"`
	RunTime   time.Duration `json:"run_time_ns"`
}

type poolMetrics struct {
	mu        sync.RWMutex
	submit    int64
	completed int64
	panicked  int64
	inFlight  int
	queueWait time.Duration
	runTime   time.Duration
}

func (m *poolMetrics) submitted() {
	m.mu.Lock()
	m.submit++
	m.mu.Unlock()
}

func (m *poolMetrics) started(waited time.Duration) {
	m.mu.Lock()
	m.inFlight++
	m.queueWait += waited
	m.mu.Unlock()
}

func (m *poolMetrics) finished(ran time.Duration, panicked bool) {
	m.mu.Lock()
	m.inFlight--
	m.completed++
	if panicked {
		m.panicked++
	}
	m.runTime += ran
	m.mu.Unlock()
}

func (m *poolMetrics) snapshot() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		Submitted: m.submit,
		Completed: m.completed,
		Panicked:  m.panicked,
		InFlight:  m.inFlight,
		QueueWait: m.queueWait,
		RunTime:   m.runTime,
	}
}
