package vsm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// MinLearnBodyRunes is the body length an email must exceed to be used for
// online learning.
const MinLearnBodyRunes = 20

// Email is a message as seen by the classifier. In JSON the body may also
// be given as "text"; "body" wins when both are set.
type Email struct {
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Body    string `json:"body"`
	Label   string `json:"label,omitempty"`
}

func (e *Email) UnmarshalJSON(data []byte) error {
	type plain Email
	var aux struct {
		plain
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Email(aux.plain)
	if e.Body == "" {
		e.Body = aux.Text
	}
	return nil
}

// TrainingValid reports whether e can contribute to offline training.
func (e Email) TrainingValid() bool {
	return e.Body != "" || e.Subject != ""
}

// Learnable reports whether e can contribute to online learning.
func (e Email) Learnable() bool {
	return e.Label != "" && utf8.RuneCountInString(e.Body) > MinLearnBodyRunes
}

// Document is the text an email contributes to vocabulary building.
func (e Email) Document() string {
	return e.Subject + " " + e.Sender + " " + e.Body
}

// Corpus is a decoded training file.
type Corpus struct {
	Records []Email
	// Positions holds the input array index of each record. When shorter
	// than Records the slice index is used.
	Positions []int
	// Undecodable counts array entries that were not JSON objects.
	Undecodable int
	// UndecodableAt lists their input array indexes.
	UndecodableAt []int
}

// position returns the input array index of record i.
func (c *Corpus) position(i int) int {
	if i < len(c.Positions) {
		return c.Positions[i]
	}
	return i
}

// DecodeCorpus reads a JSON array of training records. Entries that are not
// objects are counted and skipped, not rejected.
func DecodeCorpus(r io.Reader) (*Corpus, error) {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}

	c := &Corpus{Records: make([]Email, 0, len(items))}
	for i, item := range items {
		var e Email
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' || json.Unmarshal(item, &e) != nil {
			c.Undecodable++
			c.UndecodableAt = append(c.UndecodableAt, i)
			continue
		}
		c.Records = append(c.Records, e)
		c.Positions = append(c.Positions, i)
	}
	return c, nil
}

// LoadCorpusFile reads a training corpus from disk.
func LoadCorpusFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()
	return DecodeCorpus(f)
}
