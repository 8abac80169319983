package featloc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus counters for one Locator. With a nil
// registerer the counters still exist but are not exported anywhere.
type metrics struct {
	recordsIngested prometheus.Counter
	extentsIngested prometheus.Counter
	extentsDropped  prometheus.Counter
	featuresTotal   prometheus.Counter
	featuresLocated prometheus.Counter
	featuresMissed  prometheus.Counter
	featuresEncoded prometheus.Counter
	malformedLines  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		recordsIngested: f.NewCounter(prometheus.CounterOpts{
			Name: "featloc_file_records_ingested_total",
			Help: "File records consumed from the filesystem walker.",
		}),
		extentsIngested: f.NewCounter(prometheus.CounterOpts{
			Name: "featloc_extents_ingested_total",
			Help: "Byte extents inserted into the index.",
		}),
		extentsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "featloc_extents_dropped_total",
			Help: "Malformed byte extents dropped during ingestion.",
		}),
		featuresTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "featloc_features_total",
			Help: "Feature records processed by annotation pipelines.",
		}),
		featuresLocated: f.NewCounter(prometheus.CounterOpts{
			Name: "featloc_features_located_total",
			Help: "Features resolved to an owning file.",
		}),
		featuresMissed: f.NewCounter(prometheus.CounterOpts{
			Name: "featloc_features_unresolved_total",
			Help: "Features with no covering extent.",
		}),
		featuresEncoded: f.NewCounter(prometheus.CounterOpts{
			Name: "featloc_features_encoded_total",
			Help: "Features found in carved or transformed regions.",
		}),
		malformedLines: f.NewCounter(prometheus.CounterOpts{
			Name: "featloc_malformed_lines_total",
			Help: "Feature lines skipped because they did not parse.",
		}),
	}
}
