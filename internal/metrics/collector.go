package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a Registry as prometheus.Collector, for long-lived
// wiring that scrapes live counters rather than a one-shot stdout report.
type Collector struct {
	registry *Registry

	bytesSent  *prometheus.Desc
	bytesRecvd *prometheus.Desc
	numSends   *prometheus.Desc
	numRecvs   *prometheus.Desc
	numCols    *prometheus.Desc
	waitTime   *prometheus.Desc
}

// NewCollector wraps registry for Prometheus scraping, labeling every
// metric by NW-LP global id.
func NewCollector(registry *Registry) *Collector {
	labels := []string{"lp"}
	return &Collector{
		registry:   registry,
		bytesSent:  prometheus.NewDesc("mpireplay_bytes_sent_total", "Bytes handed to the network model by this LP.", labels, nil),
		bytesRecvd: prometheus.NewDesc("mpireplay_bytes_received_total", "Bytes accepted by matched receives on this LP.", labels, nil),
		numSends:   prometheus.NewDesc("mpireplay_sends_total", "Send/ISend ops executed by this LP.", labels, nil),
		numRecvs:   prometheus.NewDesc("mpireplay_recvs_total", "Recv/IRecv ops executed by this LP.", labels, nil),
		numCols:    prometheus.NewDesc("mpireplay_collectives_total", "Collective ops executed by this LP.", labels, nil),
		waitTime:   prometheus.NewDesc("mpireplay_wait_seconds_total", "Simulated time this LP spent blocked on Wait*.", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.bytesSent
	ch <- c.bytesRecvd
	ch <- c.numSends
	ch <- c.numRecvs
	ch <- c.numCols
	ch <- c.waitTime
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.registry.LPSnapshots() {
		lp := strconv.FormatUint(s.LPID, 10)
		ch <- prometheus.MustNewConstMetric(c.bytesSent, prometheus.CounterValue, float64(s.BytesSent), lp)
		ch <- prometheus.MustNewConstMetric(c.bytesRecvd, prometheus.CounterValue, float64(s.BytesRecvd), lp)
		ch <- prometheus.MustNewConstMetric(c.numSends, prometheus.CounterValue, float64(s.NumSends), lp)
		ch <- prometheus.MustNewConstMetric(c.numRecvs, prometheus.CounterValue, float64(s.NumRecvs), lp)
		ch <- prometheus.MustNewConstMetric(c.numCols, prometheus.CounterValue, float64(s.NumCols), lp)
		ch <- prometheus.MustNewConstMetric(c.waitTime, prometheus.CounterValue, s.WaitTime.Seconds(), lp)
	}
}

var _ prometheus.Collector = (*Collector)(nil)
