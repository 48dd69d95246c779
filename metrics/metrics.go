// Package metrics exposes nanosockets counters through Prometheus. Metrics
// are off until Enable(true); before that every getter hands out no-ops.
package metrics

import (
	"sync"
	"sync/atomic"
)

type MetricName string

type Labels map[string]string

type Gauge interface {
	Inc()
	Dec()
	Add(float64)
	Set(float64)
}

type Counter interface {
	Inc()
	Add(float64)
}

type Observer interface {
	Observe(float64)
}

type Metrics interface {
	Counter(name MetricName, labels Labels) Counter
	Gauge(name MetricName, labels Labels) Gauge
	Observer(name MetricName, labels Labels) Observer
}

const (
	// Number of open sockets. Labels: host.
	MetricSocketsGauge MetricName = "nanosockets_sockets"
	// Total datagrams sent. Labels: host.
	MetricDatagramsSentCounter MetricName = "nanosockets_datagrams_sent_total"
	// Total datagrams received. Labels: host.
	MetricDatagramsReceivedCounter MetricName = "nanosockets_datagrams_received_total"
	// Total payload bytes sent. Labels: host.
	MetricBytesSentCounter MetricName = "nanosockets_bytes_sent_total"
	// Total payload bytes received. Labels: host.
	MetricBytesReceivedCounter MetricName = "nanosockets_bytes_received_total"
	// Total failed operations. Labels: host, op, code.
	MetricErrorsCounter MetricName = "nanosockets_errors_total"
	// Time spent waiting in poll. Labels: host.
	MetricPollDurationObserver MetricName = "nanosockets_poll_duration_seconds"
)

var (
	defaultMetrics Metrics
	defaultOnce    sync.Once
	enabled        atomic.Bool
)

// Enable switches the package getters between the default Prometheus
// metrics and no-ops. The default metrics are registered on first enable.
func Enable(b bool) {
	if b {
		defaultOnce.Do(func() {
			defaultMetrics = NewMetrics(nil)
		})
	}
	enabled.Store(b)
}

func IsEnabled() bool {
	return enabled.Load()
}

func GetCounter(name MetricName, labels Labels) Counter {
	if IsEnabled() {
		return defaultMetrics.Counter(name, labels)
	}
	return noop.Counter(name, labels)
}

func GetGauge(name MetricName, labels Labels) Gauge {
	if IsEnabled() {
		return defaultMetrics.Gauge(name, labels)
	}
	return noop.Gauge(name, labels)
}

func GetObserver(name MetricName, labels Labels) Observer {
	if IsEnabled() {
		return defaultMetrics.Observer(name, labels)
	}
	return noop.Observer(name, labels)
}
