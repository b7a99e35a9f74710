// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trainer

import (
	"fmt"
	"math"
	"sort"
)

// Metrics are the held-out evaluation scores for one model.
type Metrics struct {
	// Accuracy is the fraction of correct 0.5-thresholded predictions.
	Accuracy float64 `json:"accuracy"`

	// ROCAUC is the area under the ROC curve.
	ROCAUC float64 `json:"roc_auc"`

	// AvgPrecision is the area under the precision-recall curve.
	AvgPrecision float64 `json:"avg_precision"`

	// Brier is the mean squared error of the probabilities.
	Brier float64 `json:"brier"`
}

// String formats the metrics the way training logs report them.
func (m Metrics) String() string {
	return fmt.Sprintf("accuracy=%.3f roc_auc=%.3f avg_precision=%.3f brier=%.3f",
		m.Accuracy, m.ROCAUC, m.AvgPrecision, m.Brier)
}

// ComputeMetrics scores probabilities against binary labels.
//
// # Description
//
// Ranking metrics need both classes present; a single-class slice
// returns an error so callers can decide whether that is a skip (a
// tiny per-group breakdown) or a failure (a whole evaluation fold).
func ComputeMetrics(labels []int, probs []float64) (Metrics, error) {
	if len(labels) == 0 || len(labels) != len(probs) {
		return Metrics{}, fmt.Errorf("metrics: %d labels against %d probabilities", len(labels), len(probs))
	}
	positives := 0
	for _, label := range labels {
		if label == 1 {
			positives++
		}
	}
	if positives == 0 || positives == len(labels) {
		return Metrics{}, fmt.Errorf("metrics: need both classes, got %d positives of %d rows", positives, len(labels))
	}

	return Metrics{
		Accuracy:     accuracy(labels, probs),
		ROCAUC:       rocAUC(labels, probs),
		AvgPrecision: averagePrecision(labels, probs),
		Brier:        brier(labels, probs),
	}, nil
}

func accuracy(labels []int, probs []float64) float64 {
	correct := 0
	for i, p := range probs {
		pred := 0
		if p >= 0.5 {
			pred = 1
		}
		if pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}

// rocAUC computes AUC by the rank-sum (Mann-Whitney) formulation with
// average ranks over probability ties.
func rocAUC(labels []int, probs []float64) float64 {
	n := len(probs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return probs[order[a]] < probs[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && probs[order[j]] == probs[order[i]] {
			j++
		}
		// ranks are 1-based; tied values share the average rank
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	posRankSum := 0.0
	positives := 0
	for i, label := range labels {
		if label == 1 {
			posRankSum += ranks[i]
			positives++
		}
	}
	negatives := n - positives
	return (posRankSum - float64(positives)*float64(positives+1)/2) / (float64(positives) * float64(negatives))
}

// averagePrecision integrates precision over recall steps, scanning
// rows in descending probability order.
func averagePrecision(labels []int, probs []float64) float64 {
	n := len(probs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })

	positives := 0
	for _, label := range labels {
		if label == 1 {
			positives++
		}
	}

	truePos := 0
	ap := 0.0
	for k, idx := range order {
		if labels[idx] != 1 {
			continue
		}
		truePos++
		precision := float64(truePos) / float64(k+1)
		ap += precision / float64(positives)
	}
	return ap
}

func brier(labels []int, probs []float64) float64 {
	sum := 0.0
	for i, p := range probs {
		d := p - float64(labels[i])
		sum += d * d
	}
	return sum / float64(len(probs))
}

// MetricsSummary aggregates the same metric across folds.
type MetricsSummary struct {
	Mean Metrics `json:"mean"`
	Std  Metrics `json:"std"`
}

// Summarize computes the per-metric mean and population standard
// deviation across folds.
func Summarize(folds []Metrics) MetricsSummary {
	if len(folds) == 0 {
		return MetricsSummary{}
	}
	extract := func(get func(Metrics) float64) (float64, float64) {
		values := make([]float64, len(folds))
		sum := 0.0
		for i, fold := range folds {
			values[i] = get(fold)
			sum += values[i]
		}
		m := sum / float64(len(values))
		variance := 0.0
		for _, v := range values {
			d := v - m
			variance += d * d
		}
		return m, math.Sqrt(variance / float64(len(values)))
	}

	var summary MetricsSummary
	summary.Mean.Accuracy, summary.Std.Accuracy = extract(func(m Metrics) float64 { return m.Accuracy })
	summary.Mean.ROCAUC, summary.Std.ROCAUC = extract(func(m Metrics) float64 { return m.ROCAUC })
	summary.Mean.AvgPrecision, summary.Std.AvgPrecision = extract(func(m Metrics) float64 { return m.AvgPrecision })
	summary.Mean.Brier, summary.Std.Brier = extract(func(m Metrics) float64 { return m.Brier })
	return summary
}
