package proactor

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the engine and its executors
// report into, grounded on progressdb-ProgressDB's and the ocx backend's
// use of client_golang for server-side counters/gauges.
type Metrics struct {
	activeExecutors prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheFlushes    prometheus.Counter
	bytesRead       prometheus.Counter
	bytesWritten    prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		activeExecutors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asyncio",
			Name:      "active_executors",
			Help:      "Number of stream executors currently running.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asyncio",
			Name:      "cache_hits_total",
			Help:      "Write operations absorbed by the write-back cache without reaching the back-end.",
		}),
		cacheFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asyncio",
			Name:      "cache_flushes_total",
			Help:      "Times the write-back cache was handed to the back-end.",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asyncio",
			Name:      "bytes_read_total",
			Help:      "Bytes delivered to read callbacks.",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asyncio",
			Name:      "bytes_written_total",
			Help:      "Bytes accepted by write operations.",
		}),
	}
}

// Collectors returns every collector, for bulk registration with a
// prometheus.Registerer.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.activeExecutors,
		m.cacheHits,
		m.cacheFlushes,
		m.bytesRead,
		m.bytesWritten,
	}
}

// CacheHit records a write absorbed by the write-back cache.
func (m *Metrics) CacheHit() { m.cacheHits.Inc() }

// CacheFlush records the write-back cache being handed to the back-end.
func (m *Metrics) CacheFlush() { m.cacheFlushes.Inc() }

// BytesRead records bytes delivered to a read callback.
func (m *Metrics) BytesRead(n int) { m.bytesRead.Add(float64(n)) }

// BytesWritten records bytes accepted by a write operation.
func (m *Metrics) BytesWritten(n int) { m.bytesWritten.Add(float64(n)) }
