// Package scheduler runs the periodic jobs of the inboxsort server: learning
// from Gmail category labels and snapshotting adapted centroids.
//
// Jobs use standard five-field cron specs or descriptors such as
// "@every 15m". A job never overlaps with itself; a run that is still in
// progress when the next tick fires causes that tick to be skipped.
package scheduler
