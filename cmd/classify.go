package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsort/internal/vsm"
)

type classifyOptions struct {
	subject    string
	sender     string
	body       string
	file       string
	gmailQuery string
	account    string
	max        int
}

// classification is one CLI classification result.
type classification struct {
	Subject string `json:"subject,omitempty"`
	Sender  string `json:"sender,omitempty"`
	vsm.Result
}

func newClassifyCmd() *cobra.Command {
	var opts classifyOptions

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify emails with the resident model",
		Long: `Classify one email given by flags, every email in a JSON file (a single
object or an array), or the Gmail messages matching a query.

Examples:
  inboxsort classify --subject "Team meeting" --sender boss@corp.com --body "agenda attached"
  inboxsort classify --file emails.json
  inboxsort classify --gmail-query "in:inbox is:unread" --max 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.subject, "subject", "", "Email subject")
	cmd.Flags().StringVar(&opts.sender, "sender", "", "Email sender address")
	cmd.Flags().StringVar(&opts.body, "body", "", "Email body")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "JSON file with one email or an array of emails ('-' for stdin)")
	cmd.Flags().StringVar(&opts.gmailQuery, "gmail-query", "", "Classify Gmail messages matching this search query")
	cmd.Flags().StringVar(&opts.account, "account", "", "Gmail account (default: configured account)")
	cmd.Flags().IntVar(&opts.max, "max", 0, "Maximum Gmail messages to classify (default: configured limit)")
	cmd.MarkFlagsMutuallyExclusive("file", "gmail-query")

	return cmd
}

func runClassify(cmd *cobra.Command, opts classifyOptions) error {
	ctx, provider, flush := commandContext(cmd)
	defer flush()

	rt, err := openRuntime(ctx, cfg, logger, runtimeOptions{provider: provider})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(false) }()

	var out any
	switch {
	case opts.gmailQuery != "":
		msgs, err := rt.sc.ClassifyInbox(ctx, opts.account, opts.gmailQuery, opts.max)
		if err != nil {
			return err
		}
		out = msgs
	case opts.file != "":
		emails, err := readEmailsFile(cmd.InOrStdin(), opts.file)
		if err != nil {
			return err
		}
		results := make([]classification, 0, len(emails))
		for _, e := range emails {
			results = append(results, classification{
				Subject: e.Subject,
				Sender:  e.Sender,
				Result:  rt.svc.ClassifyContext(ctx, e.Subject, e.Sender, e.Body),
			})
		}
		out = results
	default:
		if opts.subject == "" && opts.body == "" {
			return fmt.Errorf("nothing to classify: set --subject/--body, --file or --gmail-query")
		}
		out = classification{
			Subject: opts.subject,
			Sender:  opts.sender,
			Result:  rt.svc.ClassifyContext(ctx, opts.subject, opts.sender, opts.body),
		}
	}

	return writeJSON(cmd.OutOrStdout(), out)
}

// readEmailsFile reads a single email object or an array of emails from
// path, or from stdin when path is "-".
func readEmailsFile(stdin io.Reader, path string) ([]vsm.Email, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read emails: %w", err)
	}
	return decodeEmails(data)
}

func decodeEmails(data []byte) ([]vsm.Email, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no emails in input")
	}

	if data[0] == '[' {
		var emails []vsm.Email
		if err := json.Unmarshal(data, &emails); err != nil {
			return nil, fmt.Errorf("failed to parse email array: %w", err)
		}
		return emails, nil
	}

	var e vsm.Email
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}
	return []vsm.Email{e}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
