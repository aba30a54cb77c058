package main

import (
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/landing-zone-baseline/internal/core/service"
)

var (
	skipPrerequisites bool
	skipPolicies      bool
	deployTimeout     time.Duration
	assumeYes         bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Provision the landing zone and deploy guardrail policies.",
	Long: `Runs the full pipeline: prerequisite validation, manifest generation,
landing zone provisioning, guardrail policy deployment and post-deployment
validation. Provisioning typically takes over an hour; monitoring can be
resumed with 'lz-baseline status' if this command is interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := bootstrap(cmd.Context(), viper.GetViper())
		if err != nil {
			reportError(err)
			return err
		}

		if !assumeYes {
			confirmed := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Provision a landing zone in region %s with the %q policy tier?",
					application.Config.AWS.HomeRegion, application.Config.Policy.Tier),
			}
			if err := survey.AskOne(prompt, &confirmed); err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Deployment cancelled.")
				return nil
			}
		}

		opts := service.Options{
			SkipPrerequisites:    skipPrerequisites,
			SkipPolicyDeployment: skipPolicies,
			Timeout:              deployTimeout,
		}
		if err := application.Deploy(cmd.Context(), opts); err != nil {
			reportError(err)
			return err
		}
		return nil
	},
}

func init() {
	deployCmd.Flags().BoolVar(&skipPrerequisites, "skip-prerequisites", false, "Skip prerequisite validation (use only when the environment is known-good)")
	deployCmd.Flags().BoolVar(&skipPolicies, "skip-policies", false, "Skip guardrail policy deployment")
	deployCmd.Flags().DurationVar(&deployTimeout, "timeout", 0, "Monitoring timeout (default from configuration, e.g. 90m)")
	deployCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(deployCmd)
}
