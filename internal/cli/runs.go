package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
	"github.com/ahmethakanbesel/apor-sync/internal/run"
)

func NewRunsCommand() *cobra.Command {
	var (
		cat   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent category passes, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var c category.Category
			if cat != "" {
				var err error
				if c, err = category.Parse(cat); err != nil {
					return err
				}
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			setupLogger(cfg)

			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.close()

			runs, err := run.NewService(st.runs).List(cmd.Context(), c, limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PASS\tCATEGORY\tSTATUS\tSTEP\tADDED\tAMENDED\tSTARTED\tERROR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.PassID, r.Category, r.Status, r.Step, r.Added, r.Amended,
					r.CreatedAt.Format(time.RFC3339), r.Error)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&cat, "category", "c", "", "only runs of this category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	return cmd
}
