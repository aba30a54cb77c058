package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check deployment prerequisites without provisioning anything.",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd.Context(), viper.GetViper())
		if err != nil {
			reportError(err)
			return err
		}

		ready, err := application.Validate(cmd.Context())
		if err != nil {
			reportError(err)
			return err
		}
		if !ready {
			return fmt.Errorf("environment is not ready for deployment")
		}
		fmt.Println("Environment is ready for deployment.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
