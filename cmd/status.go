package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	statusOperationID string
	statusTimeout     time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Resume monitoring of an in-flight provisioning operation.",
	Long: `Looks up the operation by its identifier and, while it is still in
progress, keeps polling until it reaches a terminal state or the timeout
elapses. Interrupting this command never cancels the remote operation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd.Context(), viper.GetViper())
		if err != nil {
			reportError(err)
			return err
		}

		if err := application.Status(cmd.Context(), statusOperationID, statusTimeout); err != nil {
			reportError(err)
			return err
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusOperationID, "operation-id", "", "Operation identifier returned at submission time")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 0, "Monitoring timeout (default from configuration, e.g. 90m)")
	statusCmd.MarkFlagRequired("operation-id")

	rootCmd.AddCommand(statusCmd)
}
