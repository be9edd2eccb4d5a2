package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxsort/internal/instrumentation"
	"github.com/teemow/inboxsort/internal/logging"
	"github.com/teemow/inboxsort/internal/vsm"
)

func newTrainCmd() *cobra.Command {
	var (
		corpusPath string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Build a model artifact from a labelled corpus",
		Long: `Train reads a JSON array of labelled emails, builds the vocabulary,
IDF weights and one centroid per category, and writes the model artifact.

Records without subject and body are skipped. Records without a label shape
the vocabulary but belong to no category.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				outPath = cfg.ModelPath
			}
			ctx, _, flush := commandContext(cmd)
			defer flush()

			report, size, err := runTrain(ctx, corpusPath, outPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trained %d categories (%s) over %d terms from %d of %d records; wrote %s (%d bytes)\n",
				len(report.Categories), strings.Join(report.Categories, ", "),
				report.VocabularySize, report.Valid, report.Records, outPath, size)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Labelled training corpus (JSON array)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Model artifact to write (default: configured model path)")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

// commandContext returns the command context and the telemetry provider,
// which is nil when nothing is exported.
func commandContext(cmd *cobra.Command) (context.Context, *instrumentation.Provider, func()) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	provider, flush := startTelemetry(ctx)
	return ctx, provider, flush
}

func runTrain(ctx context.Context, corpusPath, outPath string) (vsm.TrainReport, int64, error) {
	ctx, span := instrumentation.StartSpan(ctx, instrumentation.SpanTrain,
		attribute.String("corpus", corpusPath))
	defer span.End()

	corpus, err := vsm.LoadCorpusFile(corpusPath)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return vsm.TrainReport{}, 0, err
	}

	model, report, err := vsm.Train(ctx, corpus, logging.NewSlogAdapter(logger))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return report, 0, err
	}

	if err := model.Save(outPath); err != nil {
		instrumentation.SetSpanError(span, err)
		return report, 0, err
	}

	var size int64
	if fi, err := os.Stat(outPath); err == nil {
		size = fi.Size()
	}

	logger.Info("model trained",
		logging.Model(outPath),
		"records", report.Records,
		"valid", report.Valid,
		"skipped", report.Skipped,
		"unlabeled", report.Unlabeled,
		"min_doc_freq", report.MinDocFreq,
		"vocabulary_size", report.VocabularySize,
		"categories", report.Categories,
		"artifact_bytes", size,
	)
	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrDimensions, report.VocabularySize),
		attribute.Int(instrumentation.SpanAttrCount, report.Valid),
	)
	instrumentation.SetSpanSuccess(span)
	return report, size, nil
}
