package vsm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Model is the persisted classifier artifact.
type Model struct {
	Vocabulary Vocabulary        `json:"vocabulary"`
	IDF        IDF               `json:"idf"`
	Centroids  map[string]Vector `json:"centroids"`
}

// LoadReport describes what was accepted from a model artifact.
// MissingIDF counts vocabulary terms without an IDF entry; they weigh 0.
type LoadReport struct {
	Dimensions int      `json:"dimensions"`
	Centroids  int      `json:"centroids"`
	Dropped    []string `json:"dropped,omitempty"`
	MissingIDF int      `json:"missing_idf,omitempty"`
}

// DecodeModel reads a JSON model artifact. Centroids whose length does not
// match the vocabulary are dropped individually and listed in the report.
func DecodeModel(r io.Reader) (*Model, LoadReport, error) {
	var raw struct {
		Vocabulary *Vocabulary                 `json:"vocabulary"`
		IDF        *IDF                        `json:"idf"`
		Centroids  map[string]*json.RawMessage `json:"centroids"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, LoadReport{}, fmt.Errorf("%w: %v", ErrArtifactMalformed, err)
	}
	if raw.Vocabulary == nil || len(*raw.Vocabulary) == 0 {
		return nil, LoadReport{}, fmt.Errorf("%w: missing vocabulary", ErrArtifactMalformed)
	}
	if raw.IDF == nil {
		return nil, LoadReport{}, fmt.Errorf("%w: missing idf", ErrArtifactMalformed)
	}

	m := &Model{
		Vocabulary: *raw.Vocabulary,
		IDF:        *raw.IDF,
		Centroids:  make(map[string]Vector, len(raw.Centroids)),
	}
	if dup := m.Vocabulary.duplicate(); dup != "" {
		return nil, LoadReport{}, fmt.Errorf("%w: duplicate vocabulary term %q", ErrArtifactMalformed, dup)
	}

	var dropped []string
	for label, msg := range raw.Centroids {
		var vec Vector
		if msg == nil || json.Unmarshal(*msg, &vec) != nil {
			dropped = append(dropped, label)
			continue
		}
		m.Centroids[label] = vec
	}

	report := m.prune()
	report.Dropped = append(report.Dropped, dropped...)
	sort.Strings(report.Dropped)
	return m, report, nil
}

// LoadModelFile reads a model artifact from disk.
func LoadModelFile(path string) (*Model, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	m, report, err := DecodeModel(f)
	if err != nil {
		return nil, report, fmt.Errorf("failed to load model %s: %w", path, err)
	}
	return m, report, nil
}

// Encode writes the model as indented JSON.
func (m *Model) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Save writes the model to path atomically.
func (m *Model) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	if err := m.Encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace model: %w", err)
	}
	return nil
}

// Labels returns the centroid labels in ascending order.
func (m *Model) Labels() []string {
	return sortedLabels(m.Centroids)
}

// Fingerprint identifies the vocabulary. Two models with the same
// fingerprint produce vectors of the same shape and meaning.
func (m *Model) Fingerprint() string {
	return VocabularyFingerprint(m.Vocabulary)
}

// VocabularyFingerprint is the hex SHA-256 of the newline-joined vocabulary.
func VocabularyFingerprint(vocab Vocabulary) string {
	sum := sha256.Sum256([]byte(strings.Join(vocab, "\n")))
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy of m.
func (m *Model) Clone() *Model {
	out := &Model{
		Vocabulary: append(Vocabulary(nil), m.Vocabulary...),
		IDF:        make(IDF, len(m.IDF)),
		Centroids:  make(map[string]Vector, len(m.Centroids)),
	}
	for k, v := range m.IDF {
		out.IDF[k] = v
	}
	for k, v := range m.Centroids {
		out.Centroids[k] = append(Vector(nil), v...)
	}
	return out
}

// prune drops centroids that do not match the vocabulary length and counts
// terms missing from the IDF table.
func (m *Model) prune() LoadReport {
	report := LoadReport{Dimensions: len(m.Vocabulary)}
	for _, term := range m.Vocabulary {
		if _, ok := m.IDF[term]; !ok {
			report.MissingIDF++
		}
	}
	for label, vec := range m.Centroids {
		if len(vec) != len(m.Vocabulary) {
			delete(m.Centroids, label)
			report.Dropped = append(report.Dropped, label)
		}
	}
	sort.Strings(report.Dropped)
	report.Centroids = len(m.Centroids)
	return report
}

func (v Vocabulary) duplicate() string {
	seen := make(map[string]struct{}, len(v))
	for _, term := range v {
		if _, ok := seen[term]; ok {
			return term
		}
		seen[term] = struct{}{}
	}
	return ""
}

func sortedLabels(centroids map[string]Vector) []string {
	labels := make([]string, 0, len(centroids))
	for label := range centroids {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
