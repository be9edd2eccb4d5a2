package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the resident model, including adapted centroids",
		Long: `Export loads the model artifact, applies the adapted centroids stored by
earlier learn runs (when persistence is enabled) and writes the result as a
new model artifact.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, provider, flush := commandContext(cmd)
			defer flush()

			rt, err := openRuntime(ctx, cfg, logger, runtimeOptions{provider: provider, requireModel: true})
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(false) }()

			m := rt.svc.ExportModel()
			if err := m.Save(outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d categories over %d terms to %s\n",
				len(m.Centroids), len(m.Vocabulary), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Path of the exported model artifact")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
