package vsm

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/inboxsort/internal/logging"
)

// LearnResult summarizes one applied learn batch.
type LearnResult struct {
	BatchID string         `json:"batch_id"`
	Learned int            `json:"learned"`
	Skipped int            `json:"skipped"`
	Labels  map[string]int `json:"labels"`
	Created []string       `json:"created,omitempty"`
}

type learnJob struct {
	id     string
	emails []Email
	reply  chan LearnResult
}

// Learn schedules a batch of labelled emails for incremental learning and
// returns immediately with the batch ID. Emails without a label or with a
// body of MinLearnBodyRunes or fewer are skipped. The batch is dropped, with
// a warning, when the queue is full or the service is closed.
func (s *Service) Learn(emails []Email) string {
	job := learnJob{id: uuid.NewString(), emails: emails}

	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		s.logger.Warn("learn batch dropped, service closed", logging.Batch(job.id))
		return job.id
	}

	select {
	case s.queue <- job:
	default:
		s.logger.Warn("learn batch dropped, queue full", logging.Batch(job.id), "emails", len(emails))
		s.observer.ObserveLearn(context.Background(), StatusError, nil, 0)
	}
	return job.id
}

// LearnSync applies a batch and waits until its centroids are resident.
func (s *Service) LearnSync(ctx context.Context, emails []Email) (LearnResult, error) {
	job := learnJob{id: uuid.NewString(), emails: emails, reply: make(chan LearnResult, 1)}

	if err := s.enqueue(ctx, job); err != nil {
		return LearnResult{BatchID: job.id}, err
	}

	select {
	case res := <-job.reply:
		return res, nil
	case <-ctx.Done():
		return LearnResult{BatchID: job.id}, ctx.Err()
	}
}

func (s *Service) enqueue(ctx context.Context, job learnJob) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrServiceClosed
	}

	select {
	case s.queue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) learnLoop() {
	defer s.workerWG.Done()
	for job := range s.queue {
		res := s.applyBatch(job)
		if job.reply != nil {
			job.reply <- res
		}
	}
}

// applyBatch groups the learnable emails by label and blends each group's
// centroid into the resident one:
//
//	c' = (1-LearningRate)*c + LearningRate*mean(batch)
//
// A label seen for the first time takes the batch mean as its centroid.
// Vocabulary and IDF are never touched.
func (s *Service) applyBatch(job learnJob) LearnResult {
	start := time.Now()
	logger := s.logger

	for {
		old := s.current()
		res := LearnResult{BatchID: job.id, Labels: map[string]int{}}

		groups := make(map[string][]Vector)
		for _, e := range job.emails {
			if !e.Learnable() {
				res.Skipped++
				continue
			}
			groups[e.Label] = append(groups[e.Label], old.vectorizer.Vectorize(e.Body, e.Subject, e.Sender))
			res.Labels[e.Label]++
			res.Learned++
		}

		if res.Learned == 0 {
			logger.Debug("learn batch had nothing to apply", logging.Batch(job.id), "skipped", res.Skipped)
			s.observer.ObserveLearn(context.Background(), StatusEmpty, nil, time.Since(start))
			return res
		}

		dims := old.vectorizer.Dims()
		next := make(map[string]Vector, len(old.centroids)+len(groups))
		for label, vec := range old.centroids {
			next[label] = vec
		}
		for label, vecs := range groups {
			update := CentroidOf(dims, vecs)
			if existing, ok := next[label]; ok && len(existing) == dims {
				next[label] = Blend(existing, update, LearningRate)
				continue
			}
			next[label] = update
			res.Created = append(res.Created, label)
		}
		sort.Strings(res.Created)

		// a model load raced with this batch; redo it against the new vocabulary
		if !s.swap(old, old.withCentroids(next)) {
			continue
		}

		s.batches.Add(1)
		s.observer.ObserveLearn(context.Background(), StatusSuccess, res.Labels, time.Since(start))
		logger.Info("learn batch applied",
			logging.Batch(job.id),
			"learned", res.Learned,
			"skipped", res.Skipped,
			"created", len(res.Created))
		return res
	}
}
