package vsm

import (
	"context"
	"time"
)

// Observer receives classifier events. instrumentation.Metrics implements it.
type Observer interface {
	ObserveClassify(ctx context.Context, label string, fallback bool, d time.Duration)
	ObserveLearn(ctx context.Context, status string, learned map[string]int, d time.Duration)
	ObserveModelLoad(ctx context.Context, status string)
	ObserveResidentCentroids(ctx context.Context, delta int64)
}

type nopObserver struct{}

func (nopObserver) ObserveClassify(context.Context, string, bool, time.Duration)      {}
func (nopObserver) ObserveLearn(context.Context, string, map[string]int, time.Duration) {}
func (nopObserver) ObserveModelLoad(context.Context, string)                           {}
func (nopObserver) ObserveResidentCentroids(context.Context, int64)                    {}
