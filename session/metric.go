package session

import (
	"sync/atomic"
)

// SessionMetrics contains atomic metrics for a session.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type SessionMetrics struct {
	// RequestSendCount indicates the number of request frames written.
	RequestSendCount atomic.Uint64
	// ResponseRecvCount indicates the number of responses matched to a pending request.
	ResponseRecvCount atomic.Uint64
	// NotifyRecvCount indicates the number of notification frames received.
	NotifyRecvCount atomic.Uint64

	// UnmatchedCount indicates the number of responses that matched no pending request.
	UnmatchedCount atomic.Uint64
	// DecodeErrCount indicates the number of corrupt frames the stream recovered from.
	DecodeErrCount atomic.Uint64
	// NotifyDropCount indicates the number of notifications dropped, either
	// because the dispatch queue was full or because no handler was registered.
	NotifyDropCount atomic.Uint64

	// InflightCount indicates the number of requests awaiting a response.
	InflightCount atomic.Int64
}

func (m *SessionMetrics) incRequestSendCount() {
	m.RequestSendCount.Add(1)
}

func (m *SessionMetrics) incResponseRecvCount() {
	m.ResponseRecvCount.Add(1)
}

func (m *SessionMetrics) incNotifyRecvCount() {
	m.NotifyRecvCount.Add(1)
}

func (m *SessionMetrics) incUnmatchedCount() {
	m.UnmatchedCount.Add(1)
}

func (m *SessionMetrics) incDecodeErrCount() {
	m.DecodeErrCount.Add(1)
}

func (m *SessionMetrics) incNotifyDropCount() {
	m.NotifyDropCount.Add(1)
}

func (m *SessionMetrics) incInflightCount() {
	m.InflightCount.Add(1)
}

func (m *SessionMetrics) decInflightCount() {
	m.InflightCount.Add(-1)
}
