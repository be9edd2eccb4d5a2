package vsm

import "errors"

var (
	// ErrCorpusEmpty is returned by Train when no training record is valid.
	ErrCorpusEmpty = errors.New("training corpus has no valid records")

	// ErrArtifactMalformed is returned when a model artifact cannot be used at all.
	ErrArtifactMalformed = errors.New("model artifact is malformed")

	// ErrServiceClosed is returned by LearnSync after Close.
	ErrServiceClosed = errors.New("classifier service is closed")
)
