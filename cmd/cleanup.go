package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/landing-zone-baseline/internal/policy"
)

var (
	cleanupPrefix string
	cleanupYes    bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Detach and delete managed guardrail policies by name prefix.",
	Long: `Removes every service control policy whose name carries the given
prefix. Vendor-managed policies are never touched. Individual detach or
delete failures are logged and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd.Context(), viper.GetViper())
		if err != nil {
			reportError(err)
			return err
		}

		if !cleanupYes {
			confirmed := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Detach and delete all policies with prefix %q?", cleanupPrefix),
			}
			if err := survey.AskOne(prompt, &confirmed); err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Cleanup cancelled.")
				return nil
			}
		}

		removed, err := application.Cleanup(cmd.Context(), cleanupPrefix)
		if err != nil {
			reportError(err)
			return err
		}
		fmt.Printf("Removed %d policies.\n", removed)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupPrefix, "prefix", policy.ProductPrefix, "Name prefix of policies to remove")
	cleanupCmd.Flags().BoolVarP(&cleanupYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(cleanupCmd)
}
