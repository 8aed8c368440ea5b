package related

// jaccard returns intersection/union; a non-positive union scores 0.
func jaccard(intersection, union int) float64 {
	if union <= 0 {
		return 0
	}
	return clampScore(float64(intersection) / float64(union))
}

// fastJaccard approximates J(A, B) from two md5-ordered samples with MinHash:
//
//	X = H(k, H(k, A) ∪ H(k, B))
//	Y = X ∩ H(k, A) ∩ H(k, B)
//	J(A, B) ≈ |Y| / k
//
// H(k, S) is the k smallest md5s of S, which is what a sample ordered by md5 already is.
// a and b must be sorted ascending and free of duplicates. The estimate is biased low when
// either sample holds fewer than k ids.
func fastJaccard(a, b []string, k int) float64 {
	if k <= 0 {
		return 0
	}

	// Merge the two sorted samples and walk the first k ids of the union;
	// ids present in both samples form Y.
	var i, j, taken, overlap int
	for taken < k && (i < len(a) || j < len(b)) {
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			i++
		case i >= len(a) || b[j] < a[i]:
			j++
		default:
			overlap++
			i++
			j++
		}
		taken++
	}

	return clampScore(float64(overlap) / float64(k))
}

func clampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
