package vsm

import (
	"context"
	"fmt"
	"sort"

	"github.com/teemow/inboxsort/internal/logging"
)

// maxSkipDetails is how many skipped records are described individually.
const maxSkipDetails = 3

type skippedRecord struct {
	index  int
	reason string
}

// logSkipped describes the first maxSkipDetails skipped records in input order.
func logSkipped(logger logging.Logger, skips []skippedRecord) {
	sort.Slice(skips, func(i, j int) bool { return skips[i].index < skips[j].index })
	for i, s := range skips {
		if i == maxSkipDetails {
			break
		}
		logger.Warn("skipping training record", "index", s.index, "reason", s.reason)
	}
}

// TrainReport summarizes a training run.
type TrainReport struct {
	Records        int      `json:"records"`
	Valid          int      `json:"valid"`
	Skipped        int      `json:"skipped"`
	Unlabeled      int      `json:"unlabeled"`
	MinDocFreq     int      `json:"min_doc_freq"`
	VocabularySize int      `json:"vocabulary_size"`
	Categories     []string `json:"categories"`
}

// Train builds a model from a corpus: vocabulary and IDF over all valid
// records, then one centroid per label. Records without a label shape the
// vocabulary but belong to no centroid.
func Train(ctx context.Context, corpus *Corpus, logger logging.Logger) (*Model, TrainReport, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	report := TrainReport{}
	if corpus == nil {
		return nil, report, ErrCorpusEmpty
	}
	report.Records = len(corpus.Records) + corpus.Undecodable
	report.Skipped = corpus.Undecodable

	var skips []skippedRecord
	for _, pos := range corpus.UndecodableAt {
		skips = append(skips, skippedRecord{index: pos, reason: "not a JSON object"})
	}
	valid := make([]Email, 0, len(corpus.Records))
	for i, rec := range corpus.Records {
		if !rec.TrainingValid() {
			skips = append(skips, skippedRecord{index: corpus.position(i), reason: "no text or subject"})
			report.Skipped++
			continue
		}
		valid = append(valid, rec)
	}
	logSkipped(logger, skips)
	if report.Skipped > 0 {
		logger.Warn("skipped invalid training records", "count", report.Skipped)
	}
	report.Valid = len(valid)
	if len(valid) == 0 {
		return nil, report, ErrCorpusEmpty
	}

	docs := make([][]string, len(valid))
	for i, rec := range valid {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, fmt.Errorf("training cancelled: %w", err)
			}
		}
		docs[i] = Tokenize(rec.Document())
	}

	report.MinDocFreq = MinDocFrequency(len(valid))
	vocab, idf := BuildVocabulary(docs, report.MinDocFreq)
	report.VocabularySize = len(vocab)
	logger.Info("vocabulary built", "terms", len(vocab), "min_doc_freq", report.MinDocFreq)

	vectorizer := NewVectorizer(vocab, idf)
	groups := make(map[string][]Vector)
	for _, rec := range valid {
		if rec.Label == "" {
			report.Unlabeled++
			continue
		}
		if _, ok := groups[rec.Label]; !ok {
			report.Categories = append(report.Categories, rec.Label)
		}
		groups[rec.Label] = append(groups[rec.Label], vectorizer.Vectorize(rec.Body, rec.Subject, rec.Sender))
	}

	model := &Model{
		Vocabulary: vocab,
		IDF:        idf,
		Centroids:  make(map[string]Vector, len(groups)),
	}
	for label, vecs := range groups {
		model.Centroids[label] = CentroidOf(len(vocab), vecs)
	}

	logger.Info("training complete",
		"records", report.Records,
		"valid", report.Valid,
		"skipped", report.Skipped,
		"categories", len(report.Categories))
	return model, report, nil
}
