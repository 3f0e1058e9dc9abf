package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sambhavthakkar/PulseDrive/app"
	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	"github.com/sambhavthakkar/PulseDrive/core/model"
	"github.com/sambhavthakkar/PulseDrive/pkg/export"
)

var slotsOpts struct {
	center string
	date   string
	within int
	limit  int
	format string
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List available maintenance slots",
	Args:  cobra.NoArgs,
	RunE:  runSlots,
}

func init() {
	f := slotsCmd.Flags()
	f.StringVar(&slotsOpts.center, "center", "", "only slots at this service center")
	f.StringVar(&slotsOpts.date, "date", "", "date substring, e.g. 2025-01-02")
	f.IntVar(&slotsOpts.within, "within", 0, "hours ahead to search (0 uses the generator window)")
	f.IntVar(&slotsOpts.limit, "limit", 0, "maximum number of slots (0 for all)")
	f.StringVarP(&slotsOpts.format, "format", "o", "table", "output format: table, json or csv")
	rootCmd.AddCommand(slotsCmd)
}

func runSlots(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc *app.Service) error {
		found, err := svc.Ledger.FindAvailableSlots(cmd.Context(), ledger.Query{
			WithinHours: slotsOpts.within,
			CenterID:    slotsOpts.center,
			Date:        slotsOpts.date,
			Limit:       slotsOpts.limit,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch slotsOpts.format {
		case export.FormatJSON:
			return export.WriteSlotsJSON(out, found)
		case export.FormatCSV:
			return export.WriteSlotsCSV(out, found)
		case "table":
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SLOT\tCENTER\tTIME")
			for _, s := range found {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.CenterName, s.Time.Format(model.DateLayout))
			}
			return tw.Flush()
		default:
			return fmt.Errorf("unsupported format %q", slotsOpts.format)
		}
	})
}
