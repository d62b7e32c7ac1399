// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package analytics

const insertionCutoff = 12

// RankSort returns a permutation p of the indices of counts such that
// counts[p[i]] <= counts[p[i+1]]. The input is not modified. Equal counts
// come out in a fixed but unspecified order.
func RankSort(counts []int) []int {
	perm := make([]int, len(counts))
	for i := range perm {
		perm[i] = i
	}
	quicksort(counts, perm, 0, len(perm)-1)
	return perm
}

// quicksort is a three-way partitioning sort over perm[lo..hi].
func quicksort(counts, perm []int, lo, hi int) {
	for hi-lo >= insertionCutoff {
		pivot := counts[perm[medianOfThree(counts, perm, lo, lo+(hi-lo)/2, hi)]]

		// perm[lo:lt] < pivot, perm[lt:i] == pivot, perm[gt+1:hi+1] > pivot
		lt, i, gt := lo, lo, hi
		for i <= gt {
			switch c := counts[perm[i]]; {
			case c < pivot:
				perm[lt], perm[i] = perm[i], perm[lt]
				lt++
				i++
			case c > pivot:
				perm[i], perm[gt] = perm[gt], perm[i]
				gt--
			default:
				i++
			}
		}

		// Recurse into the smaller side to bound stack depth.
		if lt-lo < hi-gt {
			quicksort(counts, perm, lo, lt-1)
			lo = gt + 1
		} else {
			quicksort(counts, perm, gt+1, hi)
			hi = lt - 1
		}
	}
	insertionSort(counts, perm, lo, hi)
}

func medianOfThree(counts, perm []int, a, b, c int) int {
	x, y, z := counts[perm[a]], counts[perm[b]], counts[perm[c]]
	switch {
	case (x <= y && y <= z) || (z <= y && y <= x):
		return b
	case (y <= x && x <= z) || (z <= x && x <= y):
		return a
	default:
		return c
	}
}

func insertionSort(counts, perm []int, lo, hi int) {
	for i := lo + 1; i <= hi; i++ {
		for j := i; j > lo && counts[perm[j]] < counts[perm[j-1]]; j-- {
			perm[j], perm[j-1] = perm[j-1], perm[j]
		}
	}
}
