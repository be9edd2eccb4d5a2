package server

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/inboxsort/internal/gmail"
	"github.com/teemow/inboxsort/internal/instrumentation"
	"github.com/teemow/inboxsort/internal/logging"
	"github.com/teemow/inboxsort/internal/store"
	"github.com/teemow/inboxsort/internal/vsm"
)

// Learn batch sources recorded in the journal.
const (
	SourceTool  = "tool"
	SourceGmail = "gmail"
	SourceCLI   = "cli"
)

// ClassifiedMessage is a Gmail message with its predicted category.
type ClassifiedMessage struct {
	ID       string  `json:"id"`
	Subject  string  `json:"subject"`
	From     string  `json:"from"`
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Fallback bool    `json:"fallback"`
}

// LearnBatch applies emails synchronously and journals the batch when
// persistence is on.
func (sc *ServerContext) LearnBatch(ctx context.Context, source string, emails []vsm.Email) (vsm.LearnResult, error) {
	ctx, span := instrumentation.StartSpan(ctx, instrumentation.SpanLearn,
		instrumentation.NewSpanAttributeBuilder().WithCount(len(emails)).Build()...)
	defer span.End()

	res, err := sc.service.LearnSync(ctx, emails)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return res, fmt.Errorf("learn batch %s: %w", res.BatchID, err)
	}
	instrumentation.AddSpanEvent(span, "applied",
		instrumentation.NewSpanAttributeBuilder().WithBatch(res.BatchID).WithCount(res.Learned).Build()...)

	if sc.store != nil && res.Learned > 0 {
		if err := sc.store.RecordBatch(ctx, source, res); err != nil {
			// Centroids are already applied; only the journal row is lost.
			sc.logger.Warn("failed to journal learn batch", logging.Batch(res.BatchID), logging.Err(err))
		}
	}

	instrumentation.SetSpanSuccess(span)
	return res, nil
}

// FetchLabeled reads up to maxPerLabel messages for every label and returns
// them as labelled emails.
func (sc *ServerContext) FetchLabeled(ctx context.Context, account string, labels []string, maxPerLabel int) ([]vsm.Email, error) {
	client, err := sc.GmailClientForAccount(account)
	if err != nil {
		return nil, err
	}

	var emails []vsm.Email
	for _, label := range labels {
		msgs, err := sc.listMessages(ctx, client, gmail.LabelQuery(label), int64(maxPerLabel))
		if err != nil {
			return nil, fmt.Errorf("fetch label %s: %w", label, err)
		}
		for _, m := range msgs {
			emails = append(emails, m.Email(label))
		}
		sc.logger.Debug("fetched labelled messages", logging.Label(label), "count", len(msgs))
	}
	return emails, nil
}

// LearnFromGmail fetches messages carrying the configured category labels
// and learns from them.
func (sc *ServerContext) LearnFromGmail(ctx context.Context, account string, labels []string, maxPerLabel int) (vsm.LearnResult, error) {
	if len(labels) == 0 {
		labels = sc.cfg.Learn.Labels
	}
	if maxPerLabel <= 0 {
		maxPerLabel = sc.cfg.Learn.MaxPerLabel
	}

	emails, err := sc.FetchLabeled(ctx, account, labels, maxPerLabel)
	if err != nil {
		return vsm.LearnResult{}, err
	}
	if len(emails) == 0 {
		return vsm.LearnResult{Labels: map[string]int{}}, nil
	}
	return sc.LearnBatch(ctx, SourceGmail, emails)
}

// ClassifyInbox classifies the messages matching query.
func (sc *ServerContext) ClassifyInbox(ctx context.Context, account, query string, maxResults int) ([]ClassifiedMessage, error) {
	if query == "" {
		query = sc.cfg.Gmail.ClassifyQuery
	}
	if maxResults <= 0 {
		maxResults = sc.cfg.Gmail.MaxResults
	}

	client, err := sc.GmailClientForAccount(account)
	if err != nil {
		return nil, err
	}
	msgs, err := sc.listMessages(ctx, client, query, int64(maxResults))
	if err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartSpan(ctx, instrumentation.SpanClassify,
		instrumentation.NewSpanAttributeBuilder().
			WithAccount(client.Account()).
			WithCount(len(msgs)).
			WithDimensions(sc.service.Info().Dimensions).
			Build()...)
	defer span.End()

	out := make([]ClassifiedMessage, 0, len(msgs))
	for _, m := range msgs {
		res := sc.service.ClassifyContext(ctx, m.Subject, m.From, m.Snippet)
		instrumentation.AddSpanEvent(span, "classified",
			instrumentation.NewSpanAttributeBuilder().WithLabel(res.Label).Build()...)
		out = append(out, ClassifiedMessage{
			ID:       m.ID,
			Subject:  m.Subject,
			From:     m.From,
			Label:    res.Label,
			Score:    res.Score,
			Fallback: res.Fallback,
		})
	}
	instrumentation.SetSpanSuccess(span)
	return out, nil
}

func (sc *ServerContext) listMessages(ctx context.Context, client *gmail.Client, query string, maxResults int64) ([]gmail.Message, error) {
	ctx, span := instrumentation.StartGmailSpan(ctx, instrumentation.OperationList,
		instrumentation.NewSpanAttributeBuilder().WithAccount(client.Account()).Build()...)
	defer span.End()

	start := time.Now()
	msgs, err := client.ListMessages(ctx, query, maxResults)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	sc.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, instrumentation.OperationList, status, time.Since(start))
	return msgs, err
}

// SnapshotCentroids saves the resident centroids to the store.
func (sc *ServerContext) SnapshotCentroids(ctx context.Context) (int, error) {
	if sc.store == nil {
		return 0, ErrPersistenceDisabled
	}
	return sc.store.Snapshot(ctx, sc.service)
}

// RecentBatches returns the newest journaled learn batches.
func (sc *ServerContext) RecentBatches(ctx context.Context, limit int) ([]store.BatchRecord, error) {
	if sc.store == nil {
		return nil, ErrPersistenceDisabled
	}
	return sc.store.RecentBatches(ctx, limit)
}
