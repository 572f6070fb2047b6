package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	generations   *prometheus.CounterVec
	exports       *prometheus.CounterVec
	fontTiers     *prometheus.CounterVec
	ledgerEntries prometheus.Counter
}

// newMetrics registers with reg; a nil reg leaves the collectors unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "badgeforge_generations_total",
			Help: "Generate actions by layout and outcome",
		}, []string{"layout", "outcome"}),
		exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "badgeforge_exports_total",
			Help: "Artifact exports by format and outcome",
		}, []string{"format", "outcome"}),
		fontTiers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "badgeforge_font_resolutions_total",
			Help: "Raster font resolutions by text role and the tier that served them",
		}, []string{"role", "tier"}),
		ledgerEntries: factory.NewCounter(prometheus.CounterOpts{
			Name: "badgeforge_ledger_entries_total",
			Help: "Entries appended to session ledgers",
		}),
	}
}
