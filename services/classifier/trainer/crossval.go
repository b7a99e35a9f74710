// Copyright (C) 2025 Astrum AI (dev@astrum.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package trainer

import (
	"fmt"
	"math/rand/v2"
)

// stratifiedFolds partitions row indexes into k held-out folds with
// near-equal class balance in each fold.
//
// # Description
//
// Indexes are grouped by label, shuffled under the seed, and dealt
// round-robin into folds, so every fold sees both classes and the
// partition is reproducible. Every class must have at least k rows.
func stratifiedFolds(labels []int, k int, seed uint64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("cross-validation needs at least 2 folds, got %d", k)
	}

	byClass := map[int][]int{}
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}
	for label, indexes := range byClass {
		if len(indexes) < k {
			return nil, fmt.Errorf("class %d has only %d rows, not enough for %d-fold stratified cross-validation; reduce the fold count or load more data", label, len(indexes), k)
		}
	}

	rng := rand.New(rand.NewPCG(seed, uint64(len(labels))))
	folds := make([][]int, k)

	// deterministic class order: negatives then positives
	for _, label := range []int{0, 1} {
		indexes := byClass[label]
		rng.Shuffle(len(indexes), func(i, j int) { indexes[i], indexes[j] = indexes[j], indexes[i] })
		for i, idx := range indexes {
			fold := i % k
			folds[fold] = append(folds[fold], idx)
		}
	}
	return folds, nil
}

// trainIndexes returns all indexes outside the held-out fold.
func trainIndexes(total int, heldOut []int) []int {
	inFold := make([]bool, total)
	for _, idx := range heldOut {
		inFold[idx] = true
	}
	train := make([]int, 0, total-len(heldOut))
	for i := 0; i < total; i++ {
		if !inFold[i] {
			train = append(train, i)
		}
	}
	return train
}
