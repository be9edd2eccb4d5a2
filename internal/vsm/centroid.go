package vsm

// LearningRate is the weight given to a learn batch when it is blended into
// an existing centroid.
const LearningRate = 0.2

// Centroid returns the component-wise mean of vectors. The dimension is taken
// from the first vector; vectors of any other length are ignored. An empty
// input yields an empty vector.
func Centroid(vectors []Vector) Vector {
	if len(vectors) == 0 {
		return Vector{}
	}
	return CentroidOf(len(vectors[0]), vectors)
}

// CentroidOf returns the mean of the vectors that have exactly dims
// components. With no such vector the result is the zero vector.
func CentroidOf(dims int, vectors []Vector) Vector {
	sum := make(Vector, dims)
	n := 0
	for _, v := range vectors {
		if len(v) != dims {
			continue
		}
		for i, x := range v {
			sum[i] += x
		}
		n++
	}
	if n == 0 {
		return sum
	}
	for i := range sum {
		sum[i] /= float64(n)
	}
	return sum
}

// Blend returns (1-rate)*existing + rate*update. Components missing from
// update count as zero.
func Blend(existing, update Vector, rate float64) Vector {
	out := make(Vector, len(existing))
	for i, x := range existing {
		var u float64
		if i < len(update) {
			u = update[i]
		}
		out[i] = (1-rate)*x + rate*u
	}
	return out
}
