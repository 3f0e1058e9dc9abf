package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sambhavthakkar/PulseDrive/app"
	"github.com/sambhavthakkar/PulseDrive/core/scheduler"
)

var requestsPath string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Assign slots to a batch of maintenance requests",
	Long: "Reads maintenance requests from a YAML or JSON file and books the earliest " +
		"free slot for each one in file order. The result is printed as JSON.",
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVarP(&requestsPath, "file", "f", "", "request batch (yaml or json)")
	_ = scheduleCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	reqs, err := scheduler.LoadRequests(requestsPath)
	if err != nil {
		return err
	}
	return withService(cmd, func(svc *app.Service) error {
		svc.Start(cmd.Context())
		res, err := svc.Scheduler.Schedule(cmd.Context(), reqs)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return errors.Join(err, encErr)
		}
		if err != nil {
			return fmt.Errorf("batch interrupted: %w", err)
		}
		return nil
	})
}
