package exporter

import (
	"sync"
	"time"

	"github.com/SyntropyNet/syntropy-ping/pkg/pingdata"
	"github.com/SyntropyNet/syntropy-ping/pkg/pinger"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports statistics of one ping target.
// It is also a pinger client and tracks per probe results.
type Collector struct {
	sync.Mutex
	target  string
	stats   *pingdata.PingStats
	results map[pinger.Result]uint64
	lastRtt time.Duration
}

func NewCollector(target string, stats *pingdata.PingStats) *Collector {
	return &Collector{
		target:  target,
		stats:   stats,
		results: make(map[pinger.Result]uint64),
	}
}

func (c *Collector) PingProcess(ev *pinger.Event) {
	c.Lock()
	defer c.Unlock()

	c.results[ev.Result]++
	if ev.Result == pinger.ResultReplied {
		c.lastRtt = ev.RTT
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

var (
	labels          = []string{"target"}
	descTransmitted = prometheus.NewDesc("sping_transmitted_total",
		"Echo requests sent", labels, nil)
	descReceived = prometheus.NewDesc("sping_received_total",
		"Echo replies matched to a request", labels, nil)
	descFailed = prometheus.NewDesc("sping_failed_total",
		"Probes answered by an ICMP error or failed to send", labels, nil)
	descDuplicates = prometheus.NewDesc("sping_duplicates_total",
		"Duplicate and late echo replies", labels, nil)
	descIgnored = prometheus.NewDesc("sping_ignored_total",
		"Received packets not belonging to any probe", labels, nil)
	descLoss = prometheus.NewDesc("sping_packet_loss_ratio",
		"Packet loss to the target", labels, nil)
	descRtt = prometheus.NewDesc("sping_rtt_seconds",
		"Round trip time statistics", append(labels, "stat"), nil)
	descLastRtt = prometheus.NewDesc("sping_last_rtt_seconds",
		"Round trip time of the last reply", labels, nil)
	descResults = prometheus.NewDesc("sping_probe_results_total",
		"Probe events by result", append(labels, "result"), nil)
)

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	sum := c.stats.Summary()

	counter := func(desc *prometheus.Desc, val uint64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(val), c.target)
	}
	counter(descTransmitted, sum.Transmitted)
	counter(descReceived, sum.Received)
	counter(descFailed, sum.Failed)
	counter(descDuplicates, sum.Duplicates)
	counter(descIgnored, sum.Ignored)

	ch <- prometheus.MustNewConstMetric(descLoss, prometheus.GaugeValue, sum.Loss/100, c.target)

	for stat, val := range map[string]time.Duration{
		"min": sum.Min, "avg": sum.Avg, "max": sum.Max, "mdev": sum.Mdev,
	} {
		ch <- prometheus.MustNewConstMetric(descRtt, prometheus.GaugeValue, val.Seconds(), c.target, stat)
	}

	c.Lock()
	defer c.Unlock()

	ch <- prometheus.MustNewConstMetric(descLastRtt, prometheus.GaugeValue, c.lastRtt.Seconds(), c.target)
	for res, count := range c.results {
		ch <- prometheus.MustNewConstMetric(descResults, prometheus.CounterValue, float64(count),
			c.target, res.String())
	}
}
