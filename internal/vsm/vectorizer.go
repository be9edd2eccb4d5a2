package vsm

// Field weights applied to term counts when building an email vector.
const (
	BodyWeight    = 1.0
	SubjectWeight = 5.0
	SenderWeight  = 10.0
)

// Vector is a dense TF-IDF vector aligned with a Vocabulary.
type Vector []float64

// Vectorizer maps emails onto a fixed vocabulary.
type Vectorizer struct {
	vocab Vocabulary
	index map[string]int
	idf   []float64
}

// NewVectorizer builds a Vectorizer for vocab. Terms missing from idf get a
// weight of zero.
func NewVectorizer(vocab Vocabulary, idf IDF) *Vectorizer {
	weights := make([]float64, len(vocab))
	for i, term := range vocab {
		weights[i] = idf[term]
	}
	return &Vectorizer{
		vocab: vocab,
		index: vocab.Index(),
		idf:   weights,
	}
}

// Dims is the length of every vector this Vectorizer produces.
func (v *Vectorizer) Dims() int {
	return len(v.vocab)
}

// Vectorize computes the weighted TF-IDF vector of an email:
//
//	tf(t)   = count_body(t) + 5*count_subject(t) + 10*count_sender(t)
//	mass    = len(body) + 5*len(subject) + 10*len(sender), or 1 when zero
//	vec[i]  = tf(vocab[i]) / mass * idf(vocab[i])
//
// where counts and lengths are over each field's tokens.
func (v *Vectorizer) Vectorize(body, subject, sender string) Vector {
	vec := make(Vector, len(v.vocab))

	tf := make(map[string]float64)
	mass := 0.0
	for _, field := range []struct {
		text   string
		weight float64
	}{
		{body, BodyWeight},
		{subject, SubjectWeight},
		{sender, SenderWeight},
	} {
		tokens := Tokenize(field.text)
		for _, t := range tokens {
			tf[t] += field.weight
		}
		mass += field.weight * float64(len(tokens))
	}
	if mass == 0 {
		mass = 1
	}

	for term, weight := range tf {
		if i, ok := v.index[term]; ok {
			vec[i] = weight / mass * v.idf[i]
		}
	}
	return vec
}
