// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionCount tracks scored rows by catalog and disposition.
	PredictionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrum_classifier_predictions_total",
			Help: "Total rows scored, by catalog and predicted disposition",
		},
		[]string{"catalog", "class"},
	)

	// AllMissingRowCount tracks inference rows that arrived with no
	// usable feature value. Such rows are still imputed and scored;
	// the counter exists so operators can spot input-quality drift.
	AllMissingRowCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrum_classifier_all_missing_rows_total",
			Help: "Total inference rows whose every feature was missing before imputation",
		},
		[]string{"catalog"},
	)

	// ProbabilityHistogram tracks the distribution of raw model
	// probabilities per catalog, for drift monitoring.
	ProbabilityHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrum_classifier_probability",
			Help:    "Distribution of raw model probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"catalog"},
	)
)

func observePrediction(catalogName string, class Class, probability float64) {
	PredictionCount.WithLabelValues(catalogName, class.String()).Inc()
	ProbabilityHistogram.WithLabelValues(catalogName).Observe(probability)
}

func observeAllMissing(catalogName string) {
	AllMissingRowCount.WithLabelValues(catalogName).Inc()
}
