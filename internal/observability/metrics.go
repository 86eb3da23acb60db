package observability

import (
	"strconv"
	"sync"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	errorCount     map[string]int64
	inboundCount   map[string]int64
	pollCycles     int64
	pollProcessed  int64
	deliveredCount int64
	simulatedCount int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		inboundCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordInbound tracks inbound correlation outcomes per channel.
func (m *Metrics) RecordInbound(channel, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inboundCount[channel+"|"+outcome]++
}

// RecordPollCycle tracks one completed mailbox poll cycle.
func (m *Metrics) RecordPollCycle(processed int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollCycles++
	m.pollProcessed += int64(processed)
}

// RecordDelivery tracks outbound email sends.
func (m *Metrics) RecordDelivery(simulated bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if simulated {
		m.simulatedCount++
	} else {
		m.deliveredCount++
	}
}

// Snapshot returns aggregate counters for the readiness payload.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var requests, errors, inbound int64
	for _, v := range m.requestCount {
		requests += v
	}
	for _, v := range m.errorCount {
		errors += v
	}
	for _, v := range m.inboundCount {
		inbound += v
	}
	return map[string]int64{
		"requests":         requests,
		"errors":           errors,
		"inbound_messages": inbound,
		"poll_cycles":      m.pollCycles,
		"poll_processed":   m.pollProcessed,
		"emails_delivered": m.deliveredCount,
		"emails_simulated": m.simulatedCount,
	}
}
