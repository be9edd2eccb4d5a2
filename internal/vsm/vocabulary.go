package vsm

import "math"

// Vocabulary is the ordered list of index terms. A term's position is its
// vector dimension.
type Vocabulary []string

// IDF maps each vocabulary term to its inverse document frequency.
type IDF map[string]float64

const (
	// LargeCorpusThreshold is the number of valid records above which rare
	// terms are pruned more aggressively.
	LargeCorpusThreshold = 100

	largeCorpusMinDocFreq = 3
	smallCorpusMinDocFreq = 1
)

// MinDocFrequency returns the document frequency a term needs to enter the
// vocabulary of a corpus with the given number of valid records.
func MinDocFrequency(validRecords int) int {
	if validRecords > LargeCorpusThreshold {
		return largeCorpusMinDocFreq
	}
	return smallCorpusMinDocFreq
}

// BuildVocabulary collects the terms of the tokenized documents whose
// document frequency is at least minCount, in first-seen order, and computes
// idf(t) = log10(N / (1 + df(t))) for each of them.
func BuildVocabulary(docs [][]string, minCount int) (Vocabulary, IDF) {
	var order []string
	docFreq := make(map[string]int)

	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			if docFreq[term] == 0 {
				order = append(order, term)
			}
			docFreq[term]++
		}
	}

	vocab := make(Vocabulary, 0, len(order))
	idf := make(IDF, len(order))
	n := float64(len(docs))
	for _, term := range order {
		df := docFreq[term]
		if df < minCount {
			continue
		}
		vocab = append(vocab, term)
		idf[term] = math.Log10(n / float64(1+df))
	}

	return vocab, idf
}

// Index returns a term to dimension lookup.
func (v Vocabulary) Index() map[string]int {
	idx := make(map[string]int, len(v))
	for i, term := range v {
		idx[term] = i
	}
	return idx
}
