package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
)

type promMetrics struct {
	host       string
	gauges     map[MetricName]*prometheus.GaugeVec
	counters   map[MetricName]*prometheus.CounterVec
	histograms map[MetricName]*prometheus.HistogramVec
}

// NewMetrics builds the Prometheus collectors and registers them with reg,
// or with the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	host, _ := os.Hostname()
	m := &promMetrics{
		host: host,
		gauges: map[MetricName]*prometheus.GaugeVec{
			MetricSocketsGauge: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: string(MetricSocketsGauge),
					Help: "Current number of open sockets",
				},
				[]string{"host"}),
		},
		counters: map[MetricName]*prometheus.CounterVec{
			MetricDatagramsSentCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: string(MetricDatagramsSentCounter),
					Help: "Total number of datagrams sent",
				},
				[]string{"host"}),
			MetricDatagramsReceivedCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: string(MetricDatagramsReceivedCounter),
					Help: "Total number of datagrams received",
				},
				[]string{"host"}),
			MetricBytesSentCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: string(MetricBytesSentCounter),
					Help: "Total payload bytes sent",
				},
				[]string{"host"}),
			MetricBytesReceivedCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: string(MetricBytesReceivedCounter),
					Help: "Total payload bytes received",
				},
				[]string{"host"}),
			MetricErrorsCounter: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: string(MetricErrorsCounter),
					Help: "Total failed socket operations",
				},
				[]string{"host", "op", "code"}),
		},
		histograms: map[MetricName]*prometheus.HistogramVec{
			MetricPollDurationObserver: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name: string(MetricPollDurationObserver),
					Help: "Distribution of time spent in poll",
					Buckets: []float64{
						.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
					},
				},
				[]string{"host"}),
		},
	}
	for k := range m.gauges {
		reg.MustRegister(m.gauges[k])
	}
	for k := range m.counters {
		reg.MustRegister(m.counters[k])
	}
	for k := range m.histograms {
		reg.MustRegister(m.histograms[k])
	}

	return m
}

func (m *promMetrics) labels(labels Labels) prometheus.Labels {
	l := prometheus.Labels{"host": m.host}
	for k, v := range labels {
		l[k] = v
	}
	return l
}

func (m *promMetrics) Gauge(name MetricName, labels Labels) Gauge {
	v, ok := m.gauges[name]
	if !ok {
		return nopGauge
	}
	return v.With(m.labels(labels))
}

func (m *promMetrics) Counter(name MetricName, labels Labels) Counter {
	v, ok := m.counters[name]
	if !ok {
		return nopCounter
	}
	return v.With(m.labels(labels))
}

func (m *promMetrics) Observer(name MetricName, labels Labels) Observer {
	v, ok := m.histograms[name]
	if !ok {
		return nopObserver
	}
	return v.With(m.labels(labels))
}
