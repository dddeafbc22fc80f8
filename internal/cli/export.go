package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ahmethakanbesel/apor-sync/internal/category"
	"github.com/ahmethakanbesel/apor-sync/internal/rate"
)

type ExportOptions struct {
	Category string
	Output   string
	Current  bool
}

func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the stored rate history of a category as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := category.Parse(opts.Category)
			if err != nil {
				return err
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

			records, err := st.records.ListAll(cmd.Context(), c)
			if err != nil {
				return fmt.Errorf("list %s records: %w", c, err)
			}
			if opts.Current {
				records = currentOnly(records)
			}

			out := cmd.OutOrStdout()
			if opts.Output != "" && opts.Output != "-" {
				f, err := os.Create(opts.Output)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			return writeRecords(out, records)
		},
	}

	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "category to export (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&opts.Current, "current", false, "only the current version of each week")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

// currentOnly keeps the latest version of each date, ordered by week.
func currentOnly(records []rate.Record) []rate.Record {
	latest := rate.Latest(records)
	out := make([]rate.Record, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateISO.Equal(out[j].DateISO) {
			return out[i].DateISO.Before(out[j].DateISO)
		}
		return out[i].Date < out[j].Date
	})
	return out
}

func writeRecords(w io.Writer, records []rate.Record) error {
	if records == nil {
		records = []rate.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
