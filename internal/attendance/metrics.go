package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts processed scans by kind.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanattend_scans_total",
		Help: "Processed scans by kind (entry, exit, reentry).",
	}, []string{"kind"})

	// TardyScansTotal counts entries that exceeded the tolerance window.
	TardyScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanattend_tardy_scans_total",
		Help: "Entry scans arriving past the tolerance deadline.",
	})

	// PersistenceFailures counts failed record-set writes.
	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanattend_persistence_failures_total",
		Help: "Record set writes that failed and were surfaced as warnings.",
	})
)
