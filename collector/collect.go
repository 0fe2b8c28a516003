package collector

import (
	"log"
	"strconv"

	"github.com/bigtcze/znsd/zns"
	"github.com/prometheus/client_golang/prometheus"
)

// Collect implements prometheus.Collector. It takes a single Snapshot of
// the namespace (itself lock-guarded) rather than walking zones under its
// own lock, so a Collect pass never blocks a live command for longer than
// one snapshot copy.
func (c *ZNSCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.ns.Snapshot()
	active, open, maxActive, maxOpen := c.ns.Counters()

	stateCounts := make(map[zns.State]int)
	for _, z := range snapshot {
		stateCounts[z.State]++
	}
	for _, state := range []zns.State{
		zns.StateEmpty, zns.StateImplicitlyOpen, zns.StateExplicitlyOpen,
		zns.StateClosed, zns.StateFull, zns.StateReadOnly, zns.StateOffline,
	} {
		ch <- prometheus.MustNewConstMetric(
			c.zoneStateCount, prometheus.GaugeValue,
			float64(stateCounts[state]), state.String(),
		)
	}

	ch <- prometheus.MustNewConstMetric(c.activeZones, prometheus.GaugeValue, float64(active))
	ch <- prometheus.MustNewConstMetric(c.openZones, prometheus.GaugeValue, float64(open))
	ch <- prometheus.MustNewConstMetric(c.maxActiveZones, prometheus.GaugeValue, float64(maxActive))
	ch <- prometheus.MustNewConstMetric(c.maxOpenZones, prometheus.GaugeValue, float64(maxOpen))

	if len(snapshot) > zoneWPCardinalityCap {
		log.Printf("collector: namespace has %d zones, above the %d-zone write-pointer cardinality cap; dropping zns_zone_write_pointer", len(snapshot), zoneWPCardinalityCap)
	} else {
		for _, z := range snapshot {
			ch <- prometheus.MustNewConstMetric(
				c.zoneWP, prometheus.GaugeValue,
				float64(z.WP), strconv.FormatUint(uint64(z.Index), 10),
			)
		}
	}

	c.cmdMu.Lock()
	counts := make(map[cmdKey]uint64, len(c.cmdCount))
	for k, v := range c.cmdCount {
		counts[k] = v
	}
	c.cmdMu.Unlock()

	for k, v := range counts {
		ch <- prometheus.MustNewConstMetric(
			c.commandsTotal, prometheus.CounterValue,
			float64(v), k.opcode, k.status,
		)
	}
}
