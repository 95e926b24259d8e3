package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// UploadSnapshot is the in-flight upload state read on each scrape
type UploadSnapshot struct {
	Count int
	Bytes int64
}

// UploadsCollector reports in-flight uploads on each scrape
type UploadsCollector struct {
	snapshot func() UploadSnapshot

	// Metric descriptors
	activeUploads     *prometheus.Desc
	activeUploadBytes *prometheus.Desc
}

// NewUploadsCollector creates a collector reading state from snapshot
func NewUploadsCollector(snapshot func() UploadSnapshot) *UploadsCollector {
	return &UploadsCollector{
		snapshot: snapshot,
		activeUploads: prometheus.NewDesc(
			"studiodesk_active_uploads",
			"Number of uploads currently in flight",
			nil, nil,
		),
		activeUploadBytes: prometheus.NewDesc(
			"studiodesk_active_upload_bytes",
			"Total size in bytes of uploads currently in flight",
			nil, nil,
		),
	}
}

// Describe sends metric descriptors to Prometheus
func (c *UploadsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeUploads
	ch <- c.activeUploadBytes
}

// Collect sends the current snapshot to Prometheus
func (c *UploadsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.snapshot()

	ch <- prometheus.MustNewConstMetric(
		c.activeUploads,
		prometheus.GaugeValue,
		float64(snap.Count),
	)

	ch <- prometheus.MustNewConstMetric(
		c.activeUploadBytes,
		prometheus.GaugeValue,
		float64(snap.Bytes),
	)
}
