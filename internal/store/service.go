package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/teemow/inboxsort/internal/vsm"
)

// Snapshot saves the resident centroids of svc under its vocabulary
// fingerprint. An untrained service is not saved.
func (s *Store) Snapshot(ctx context.Context, svc *vsm.Service) (int, error) {
	info := svc.Info()
	if info.State != vsm.StateTrained || info.Fingerprint == "" {
		return 0, nil
	}
	m := svc.ExportModel()
	if err := s.SaveSnapshot(ctx, m.Fingerprint(), m.Centroids); err != nil {
		return 0, err
	}
	return len(m.Centroids), nil
}

// Restore installs the snapshot matching the resident vocabulary of svc.
// It returns 0 and no error when there is nothing to restore.
func (s *Store) Restore(ctx context.Context, svc *vsm.Service) (int, error) {
	fingerprint := svc.Info().Fingerprint
	if fingerprint == "" {
		return 0, nil
	}

	centroids, err := s.LoadSnapshot(ctx, fingerprint)
	if errors.Is(err, ErrNoSnapshot) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to restore centroids: %w", err)
	}
	return svc.ReplaceCentroids(centroids), nil
}
