// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ensemble

import (
	"math"
	"sort"
)

// Node is one node of a regression tree, stored in a flat slice so
// trees serialize without pointer chasing. Leaf nodes have Left and
// Right set to -1.
type Node struct {
	// Feature is the split column index (meaningless on leaves).
	Feature int `json:"feature"`

	// Threshold routes rows: value <= Threshold goes left.
	Threshold float64 `json:"threshold"`

	// Left and Right index into the tree's node slice, -1 on leaves.
	Left  int `json:"left"`
	Right int `json:"right"`

	// Value is the leaf output (already scaled by the learning rate).
	Value float64 `json:"value"`

	// Gain is the split's objective improvement, used for feature
	// importance reporting.
	Gain float64 `json:"gain"`

	// Count is the number of training rows that reached this node.
	Count int `json:"count"`
}

// Tree is one fitted regression tree of the boosted ensemble.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict routes one feature row to its leaf value.
func (t *Tree) Predict(row []float64) float64 {
	idx := 0
	for {
		node := &t.Nodes[idx]
		if node.Left < 0 {
			return node.Value
		}
		if row[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// treeBuilder grows one tree on gradient/hessian targets using exact
// split enumeration with second-order (Newton) gain.
type treeBuilder struct {
	features [][]float64
	grad     []float64
	hess     []float64
	params   Params
	columns  []int
	nodes    []Node
}

// build grows the tree over the given row indexes and returns it with
// leaf values scaled by the learning rate.
func (b *treeBuilder) build(rows []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(rows, 0)
	return Tree{Nodes: append([]Node(nil), b.nodes...)}
}

// grow recursively splits rows, returning the new node's index.
func (b *treeBuilder) grow(rows []int, depth int) int {
	gradSum, hessSum := b.sums(rows)

	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		Feature: -1,
		Left:    -1,
		Right:   -1,
		Value:   b.leafValue(gradSum, hessSum),
		Count:   len(rows),
	})

	if depth >= b.params.MaxDepth || len(rows) < 2*b.params.MinChildSamples {
		return idx
	}

	split, ok := b.bestSplit(rows, gradSum, hessSum)
	if !ok {
		return idx
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, row := range rows {
		if b.features[row][split.feature] <= split.threshold {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	b.nodes[idx].Feature = split.feature
	b.nodes[idx].Threshold = split.threshold
	b.nodes[idx].Gain = split.gain
	b.nodes[idx].Value = 0

	leftIdx := b.grow(left, depth+1)
	rightIdx := b.grow(right, depth+1)
	b.nodes[idx].Left = leftIdx
	b.nodes[idx].Right = rightIdx
	return idx
}

type candidateSplit struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit scans the sampled columns for the highest-gain partition.
func (b *treeBuilder) bestSplit(rows []int, gradSum, hessSum float64) (candidateSplit, bool) {
	best := candidateSplit{gain: b.params.MinSplitGain}
	found := false
	parentScore := score(gradSum, hessSum, b.params.Lambda)

	ordered := make([]int, len(rows))
	for _, col := range b.columns {
		copy(ordered, rows)
		sort.Slice(ordered, func(i, j int) bool {
			return b.features[ordered[i]][col] < b.features[ordered[j]][col]
		})

		gradLeft, hessLeft := 0.0, 0.0
		for i := 0; i < len(ordered)-1; i++ {
			row := ordered[i]
			gradLeft += b.grad[row]
			hessLeft += b.hess[row]

			current := b.features[row][col]
			next := b.features[ordered[i+1]][col]
			if current == next {
				continue
			}
			if i+1 < b.params.MinChildSamples || len(ordered)-i-1 < b.params.MinChildSamples {
				continue
			}

			gain := score(gradLeft, hessLeft, b.params.Lambda) +
				score(gradSum-gradLeft, hessSum-hessLeft, b.params.Lambda) -
				parentScore
			if gain > best.gain {
				best = candidateSplit{
					feature:   col,
					threshold: midpoint(current, next),
					gain:      gain,
				}
				found = true
			}
		}
	}
	return best, found
}

func (b *treeBuilder) sums(rows []int) (gradSum, hessSum float64) {
	for _, row := range rows {
		gradSum += b.grad[row]
		hessSum += b.hess[row]
	}
	return gradSum, hessSum
}

// leafValue is the Newton step for the leaf, scaled by the learning
// rate so prediction is a plain sum over trees.
func (b *treeBuilder) leafValue(gradSum, hessSum float64) float64 {
	return b.params.LearningRate * (-gradSum / (hessSum + b.params.Lambda))
}

// score is the structure objective 0.5 * G^2 / (H + lambda).
func score(gradSum, hessSum, lambda float64) float64 {
	return 0.5 * gradSum * gradSum / (hessSum + lambda)
}

// midpoint picks a split threshold between two adjacent sorted values.
// Falls back to the lower value when the average is not representable
// between them.
func midpoint(lower, upper float64) float64 {
	mid := lower + (upper-lower)/2
	if math.IsInf(mid, 0) || mid <= lower || mid >= upper {
		return lower
	}
	return mid
}
