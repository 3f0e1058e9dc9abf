package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sambhavthakkar/PulseDrive/app"
	"github.com/sambhavthakkar/PulseDrive/core/model"
	"github.com/sambhavthakkar/PulseDrive/pkg/export"
)

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Inspect and manage reservations",
	Long: "Reservations are read from the configured store, so these commands only " +
		"see bookings made by other processes when the store is sqlite or http.",
}

var bookingsLsCmd = &cobra.Command{
	Use:   "ls <vehicle_id>",
	Short: "List active bookings of a vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookingsLs,
}

var bookingsCancelCmd = &cobra.Command{
	Use:   "cancel <booking_id>",
	Short: "Cancel a booking and release its slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookingsCancel,
}

var exportOpts struct {
	format string
	output string
}

var bookingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export active bookings or a utilisation chart",
	Args:  cobra.NoArgs,
	RunE:  runBookingsExport,
}

func init() {
	bookingsExportCmd.Flags().StringVar(&exportOpts.format, "format", export.FormatJSON, "json, csv or chart")
	bookingsExportCmd.Flags().StringVarP(&exportOpts.output, "output", "o", "", "output file (stdout when empty)")
	bookingsCmd.AddCommand(bookingsLsCmd, bookingsCancelCmd, bookingsExportCmd)
	rootCmd.AddCommand(bookingsCmd)
}

func runBookingsLs(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc *app.Service) error {
		rs := svc.Ledger.BookingsForVehicle(cmd.Context(), args[0])
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "BOOKING\tSLOT\tCENTER\tTIME\tSERVICE\tCOST")
		for _, r := range rs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.BookingID, r.SlotID, r.CenterName, r.SlotTime.Format(model.DateLayout), r.ServiceType, r.EstimatedCost)
		}
		return tw.Flush()
	})
}

func runBookingsCancel(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc *app.Service) error {
		svc.Start(cmd.Context())
		ack, err := svc.Ledger.CancelBooking(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (slot %s released)\n", ack.BookingID, ack.Status, ack.SlotID)
		return nil
	})
}

func runBookingsExport(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc *app.Service) (err error) {
		var out io.Writer = cmd.OutOrStdout()
		if exportOpts.output != "" {
			f, ferr := os.Create(exportOpts.output)
			if ferr != nil {
				return ferr
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()
			out = f
		}
		if exportOpts.format == export.FormatChart {
			return export.WriteUtilizationChart(out, svc.Ledger.Utilization(cmd.Context()))
		}
		return export.Bookings(out, exportOpts.format, svc.Ledger.ActiveBookings(cmd.Context()))
	})
}
