package collector

import "github.com/prometheus/client_golang/prometheus"

// Describe implements prometheus.Collector.
func (c *ZNSCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.zoneStateCount
	ch <- c.activeZones
	ch <- c.openZones
	ch <- c.maxActiveZones
	ch <- c.maxOpenZones
	ch <- c.zoneWP
	ch <- c.commandsTotal
}
