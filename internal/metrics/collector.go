package metrics

import (
	"time"

	"slidekiosk/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// gaugeUpdater is implemented by providers that maintain gauges of their
// own beyond the row counts in Stats.
type gaugeUpdater interface {
	UpdateDBMetrics()
}

// Stats holds the current statistics
type Stats struct {
	TotalImages   int
	TotalVideos   int
	TotalSettings int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	MediaFilesTotal.WithLabelValues("image").Set(float64(stats.TotalImages))
	MediaFilesTotal.WithLabelValues("video").Set(float64(stats.TotalVideos))
	SettingsTotal.Set(float64(stats.TotalSettings))

	if updater, ok := c.statsProvider.(gaugeUpdater); ok {
		updater.UpdateDBMetrics()
	}

	logging.Debug("Metrics collected: images=%d, videos=%d, settings=%d",
		stats.TotalImages, stats.TotalVideos, stats.TotalSettings)
}
