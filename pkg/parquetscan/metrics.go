package parquetscan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRowsDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiver",
		Name:      "scan_rows_decoded_total",
		Help:      "Total rows decoded into arrow records.",
	})
	metricRecordsAssembled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiver",
		Name:      "scan_records_assembled_total",
		Help:      "Total arrow records assembled from column chunks.",
	})
	metricDecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quiver",
		Name:      "scan_decode_errors_total",
		Help:      "Total decode failures while scanning parquet files.",
	})
)
