package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/vsm"
)

type learnOptions struct {
	file        string
	fromGmail   bool
	account     string
	labels      []string
	maxPerLabel int
	exportPath  string
}

func newLearnCmd() *cobra.Command {
	var opts learnOptions

	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Fold labelled emails into the category centroids",
		Long: `Learn adapts the resident centroids from labelled emails, either from a
JSON file or from Gmail messages carrying the category labels.

Emails need a label and a body longer than 20 characters; others are
skipped. Unknown labels create new categories.

The adapted centroids are kept in the SQLite store when persistence is
enabled. Use --export to write a full model artifact instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLearn(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "JSON file with labelled emails ('-' for stdin)")
	cmd.Flags().BoolVar(&opts.fromGmail, "from-gmail", false, "Learn from Gmail messages carrying category labels")
	cmd.Flags().StringVar(&opts.account, "account", "", "Gmail account (default: configured account)")
	cmd.Flags().StringSliceVar(&opts.labels, "labels", nil, "Gmail labels to learn from (default: configured labels)")
	cmd.Flags().IntVar(&opts.maxPerLabel, "max-per-label", 0, "Messages fetched per label (default: configured limit)")
	cmd.Flags().StringVar(&opts.exportPath, "export", "", "Write the adapted model to this path")
	cmd.MarkFlagsMutuallyExclusive("file", "from-gmail")
	cmd.MarkFlagsOneRequired("file", "from-gmail")

	return cmd
}

func runLearn(cmd *cobra.Command, opts learnOptions) error {
	ctx, provider, flush := commandContext(cmd)
	defer flush()

	rt, err := openRuntime(ctx, cfg, logger, runtimeOptions{provider: provider})
	if err != nil {
		return err
	}

	var res vsm.LearnResult
	if opts.fromGmail {
		res, err = rt.sc.LearnFromGmail(ctx, opts.account, opts.labels, opts.maxPerLabel)
	} else {
		var emails []vsm.Email
		emails, err = readEmailsFile(cmd.InOrStdin(), opts.file)
		if err == nil {
			res, err = rt.sc.LearnBatch(ctx, server.SourceCLI, emails)
		}
	}
	if err != nil {
		_ = rt.Close(false)
		return err
	}

	if opts.exportPath != "" {
		if err := rt.svc.ExportModel().Save(opts.exportPath); err != nil {
			_ = rt.Close(false)
			return err
		}
		logger.Info("exported adapted model", "path", opts.exportPath)
	}

	if err := rt.Close(true); err != nil {
		return err
	}
	if res.BatchID == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "No labelled messages found")
	}
	return writeJSON(cmd.OutOrStdout(), res)
}
