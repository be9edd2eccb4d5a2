package vsm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teemow/inboxsort/internal/logging"
)

// Fallback labels and the confidence below which they apply.
const (
	LowConfidenceThreshold = 0.05

	LabelWork      = "Work"
	LabelPromotion = "Promotion"
)

// promotionSenderHints mark bulk senders when the model has no confident answer.
var promotionSenderHints = []string{"no-reply", "info", "newsletter"}

// State is the lifecycle state of a Service.
type State string

const (
	StateUntrained State = "untrained"
	StateTrained   State = "trained"
)

// Status values reported to the Observer.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusEmpty   = "empty"
)

// Result is the outcome of classifying one email.
type Result struct {
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Fallback bool    `json:"fallback"`
}

// Info describes the resident model.
type Info struct {
	State        State    `json:"state"`
	Dimensions   int      `json:"dimensions"`
	Labels       []string `json:"labels"`
	Fingerprint  string   `json:"fingerprint,omitempty"`
	LearnBatches int64    `json:"learn_batches"`
}

// Options configure a Service.
type Options struct {
	Logger   logging.Logger
	Observer Observer
	// LearnQueueSize bounds how many fire-and-forget batches may wait.
	LearnQueueSize int
}

const defaultLearnQueueSize = 64

// snapshot is an immutable view of the resident model. Learning and loading
// replace the whole snapshot; readers never see a half-applied update.
type snapshot struct {
	vocab       Vocabulary
	idf         IDF
	vectorizer  *Vectorizer
	centroids   map[string]Vector
	labels      []string
	fingerprint string
}

func newSnapshot(vocab Vocabulary, idf IDF, centroids map[string]Vector) *snapshot {
	if centroids == nil {
		centroids = map[string]Vector{}
	}
	s := &snapshot{
		vocab:      vocab,
		idf:        idf,
		vectorizer: NewVectorizer(vocab, idf),
		centroids:  centroids,
		labels:     sortedLabels(centroids),
	}
	if len(vocab) > 0 {
		s.fingerprint = VocabularyFingerprint(vocab)
	}
	return s
}

func (s *snapshot) withCentroids(centroids map[string]Vector) *snapshot {
	return &snapshot{
		vocab:       s.vocab,
		idf:         s.idf,
		vectorizer:  s.vectorizer,
		centroids:   centroids,
		labels:      sortedLabels(centroids),
		fingerprint: s.fingerprint,
	}
}

// Service holds the resident model and serves classification and learning.
type Service struct {
	logger   logging.Logger
	observer Observer

	mu   sync.RWMutex
	snap *snapshot

	queue    chan learnJob
	closeMu  sync.RWMutex
	closed   bool
	workerWG sync.WaitGroup

	batches atomic.Int64
}

// New creates an untrained Service and starts its learn worker. Call Close
// to stop the worker.
func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.LearnQueueSize <= 0 {
		opts.LearnQueueSize = defaultLearnQueueSize
	}

	s := &Service{
		logger:   opts.Logger,
		observer: opts.Observer,
		snap:     newSnapshot(nil, IDF{}, nil),
		queue:    make(chan learnJob, opts.LearnQueueSize),
	}
	s.workerWG.Add(1)
	go s.learnLoop()
	return s
}

func (s *Service) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// swap replaces the snapshot if it is still old. It reports whether the
// swap happened.
func (s *Service) swap(old, next *snapshot) bool {
	s.mu.Lock()
	if s.snap != old {
		s.mu.Unlock()
		return false
	}
	s.snap = next
	s.mu.Unlock()

	if delta := len(next.centroids) - len(old.centroids); delta != 0 {
		s.observer.ObserveResidentCentroids(context.Background(), int64(delta))
	}
	return true
}

func (s *Service) replace(next *snapshot) {
	for {
		if s.swap(s.current(), next) {
			return
		}
	}
}

// LoadModel makes m the resident model. Centroids that do not match the
// vocabulary are dropped and listed in the report. m is copied.
func (s *Service) LoadModel(m *Model) (LoadReport, error) {
	if m == nil || len(m.Vocabulary) == 0 {
		s.observer.ObserveModelLoad(context.Background(), StatusError)
		return LoadReport{}, fmt.Errorf("%w: empty vocabulary", ErrArtifactMalformed)
	}
	if dup := m.Vocabulary.duplicate(); dup != "" {
		s.observer.ObserveModelLoad(context.Background(), StatusError)
		return LoadReport{}, fmt.Errorf("%w: duplicate vocabulary term %q", ErrArtifactMalformed, dup)
	}

	clone := m.Clone()
	report := clone.prune()
	for _, label := range report.Dropped {
		s.logger.Warn("dropping centroid with mismatched dimensions", logging.Label(label))
	}
	if report.MissingIDF > 0 {
		s.logger.Warn("vocabulary terms without idf weigh zero", "terms", report.MissingIDF)
	}

	s.replace(newSnapshot(clone.Vocabulary, clone.IDF, clone.Centroids))
	s.observer.ObserveModelLoad(context.Background(), StatusSuccess)
	s.logger.Info("model loaded", "dimensions", report.Dimensions, "centroids", report.Centroids)
	return report, nil
}

// LoadModelFile loads a model artifact from disk. On error the resident
// model is left untouched.
func (s *Service) LoadModelFile(path string) (LoadReport, error) {
	m, report, err := LoadModelFile(path)
	if err != nil {
		s.observer.ObserveModelLoad(context.Background(), StatusError)
		return report, err
	}
	for _, label := range report.Dropped {
		s.logger.Warn("dropping malformed centroid", logging.Label(label), logging.Model(path))
	}
	loaded, err := s.LoadModel(m)
	loaded.Dropped = append(report.Dropped, loaded.Dropped...)
	return loaded, err
}

// ReplaceCentroids installs centroids on top of the resident vocabulary.
// Vectors of the wrong length are skipped. It returns how many were installed.
func (s *Service) ReplaceCentroids(centroids map[string]Vector) int {
	for {
		old := s.current()
		next := make(map[string]Vector, len(centroids))
		for label, vec := range centroids {
			if len(vec) != len(old.vocab) {
				s.logger.Warn("skipping centroid with mismatched dimensions", logging.Label(label))
				continue
			}
			next[label] = append(Vector(nil), vec...)
		}
		if s.swap(old, old.withCentroids(next)) {
			return len(next)
		}
	}
}

// ExportModel returns a deep copy of the resident model including any
// adapted centroids.
func (s *Service) ExportModel() *Model {
	snap := s.current()
	m := &Model{Vocabulary: snap.vocab, IDF: snap.idf, Centroids: snap.centroids}
	return m.Clone()
}

// State reports whether any centroid is resident.
func (s *Service) State() State {
	if len(s.current().centroids) == 0 {
		return StateUntrained
	}
	return StateTrained
}

// Info describes the resident model.
func (s *Service) Info() Info {
	snap := s.current()
	state := StateUntrained
	if len(snap.centroids) > 0 {
		state = StateTrained
	}
	return Info{
		State:        state,
		Dimensions:   len(snap.vocab),
		Labels:       append([]string(nil), snap.labels...),
		Fingerprint:  snap.fingerprint,
		LearnBatches: s.batches.Load(),
	}
}

// Classify assigns a category to an email. It never fails: with no resident
// centroid or no confident match the sender heuristic decides.
func (s *Service) Classify(subject, sender, body string) Result {
	return s.ClassifyContext(context.Background(), subject, sender, body)
}

// ClassifyContext is Classify with a context for observation.
func (s *Service) ClassifyContext(ctx context.Context, subject, sender, body string) Result {
	start := time.Now()
	snap := s.current()
	vec := snap.vectorizer.Vectorize(body, subject, sender)

	res := Result{Label: LabelWork, Score: -1}
	best := ""
	for _, label := range snap.labels {
		centroid := snap.centroids[label]
		if len(centroid) != len(vec) {
			continue
		}
		// labels are sorted, so ties keep the lexicographically smallest
		if sim := CosineSimilarity(vec, centroid); sim > res.Score {
			best, res.Score = label, sim
		}
	}
	if best != "" {
		res.Label = best
	}

	if res.Score < LowConfidenceThreshold {
		res.Label = FallbackLabel(sender)
		res.Fallback = true
	}

	s.observer.ObserveClassify(ctx, res.Label, res.Fallback, time.Since(start))
	return res
}

// FallbackLabel guesses a category from the sender alone.
func FallbackLabel(sender string) string {
	lower := strings.ToLower(sender)
	for _, hint := range promotionSenderHints {
		if strings.Contains(lower, hint) {
			return LabelPromotion
		}
	}
	return LabelWork
}

// Close stops accepting learn batches, applies the queued ones and stops the
// worker. It is safe to call more than once.
func (s *Service) Close() error {
	s.closeMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.closeMu.Unlock()

	s.workerWG.Wait()
	return nil
}
