package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/olusolaa/landing-zone-baseline/internal/core/domain"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
)

type Config struct {
	NoColor bool `yaml:"no_color"`
}

// Reporter renders validation results, deployment summaries, rollback
// guidance and polling progress as human-readable terminal output.
type Reporter struct {
	config  Config
	writer  io.Writer
	section pterm.SectionPrinter
	logger  ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	if cfg.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
		pterm.DisableColor()
	}

	return &Reporter{
		config:  cfg,
		writer:  os.Stdout,
		section: pterm.DefaultSection,
		logger:  logger,
	}, nil
}

func isTerminal(f *os.File) bool {
	stat, _ := f.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Phase(ctx context.Context, name string) {
	r.section.Println(name)
}

func (r *Reporter) ValidationResults(ctx context.Context, results []domain.ValidationResult) {
	if len(results) == 0 {
		fmt.Fprintln(r.writer, "No prerequisite checks were run.")
		return
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintln(tw, "Prerequisite Validation Report")
	fmt.Fprintln(tw, "==============================")
	fmt.Fprintln(tw, "Status\tCheck\tDetails")
	fmt.Fprintln(tw, "------\t-----\t-------")

	passedCount := 0
	failedCount := 0
	warningCount := 0
	skippedCount := 0

	for _, res := range results {
		statusStr := ""
		switch res.Status {
		case domain.StatusPassed:
			passedCount++
			statusStr = green("[PASS]")
		case domain.StatusFailed:
			failedCount++
			statusStr = red("[FAIL]")
		case domain.StatusWarning:
			warningCount++
			statusStr = yellow("[WARN]")
		case domain.StatusSkipped:
			skippedCount++
			statusStr = cyan("[SKIP]")
		default:
			statusStr = "[UNKNOWN]"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\n", statusStr, res.CheckName, res.Message)
		for _, step := range res.RemediationSteps {
			fmt.Fprintf(tw, "\t\t- %s\n", step)
		}
	}

	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	fmt.Fprintf(tw, "Checks Run:\t%d\n", len(results))
	fmt.Fprintf(tw, "Passed:\t%s\n", green(passedCount))
	fmt.Fprintf(tw, "Failed:\t%s\n", red(failedCount))
	fmt.Fprintf(tw, "Warnings:\t%s\n", yellow(warningCount))
	fmt.Fprintf(tw, "Skipped:\t%s\n", cyan(skippedCount))
}

func (r *Reporter) DeploymentResult(ctx context.Context, result domain.DeploymentResult) {
	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Fprintln(tw, "\nDeployment Summary")
	fmt.Fprintln(tw, "==================")
	if result.Status == domain.DeploymentSucceeded {
		fmt.Fprintf(tw, "Status:\t%s\n", green(string(result.Status)))
	} else {
		fmt.Fprintf(tw, "Status:\t%s\n", red(string(result.Status)))
	}
	if result.OperationID != "" {
		fmt.Fprintf(tw, "Operation ID:\t%s\n", result.OperationID)
	}
	if result.ResourceIdentifier != "" {
		fmt.Fprintf(tw, "Landing Zone:\t%s\n", result.ResourceIdentifier)
	}

	if len(result.StepsCompleted) > 0 {
		fmt.Fprintln(tw, "\nCompleted Steps:")
		for _, step := range result.StepsCompleted {
			fmt.Fprintf(tw, "  %s %s\n", green("+"), step)
		}
	}

	if len(result.DeployedPolicies) > 0 {
		names := make([]string, 0, len(result.DeployedPolicies))
		for name := range result.DeployedPolicies {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(tw, "\nDeployed Policies:")
		for _, name := range names {
			fmt.Fprintf(tw, "  %s\t%s\n", name, result.DeployedPolicies[name])
		}
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(tw, "%s %s\n", yellow("Warning:"), warning)
	}
	for _, errMsg := range result.Errors {
		fmt.Fprintf(tw, "%s %s\n", red("Error:"), errMsg)
	}
}

func (r *Reporter) RollbackGuidance(ctx context.Context, guidance domain.RollbackGuidance) {
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()

	fmt.Fprintf(r.writer, "\n%s\n", yellow("Manual Rollback Guidance"))
	fmt.Fprintln(r.writer, "========================")
	fmt.Fprintln(r.writer, "The deployment failed after remote resources were created.")
	fmt.Fprintln(r.writer, "Nothing is removed automatically; review the steps below.")
	if guidance.OperationID != "" {
		fmt.Fprintf(r.writer, "Operation ID: %s\n", guidance.OperationID)
	}
	if guidance.ResourceIdentifier != "" {
		fmt.Fprintf(r.writer, "Landing Zone: %s\n", guidance.ResourceIdentifier)
	}
	for i, step := range guidance.Steps {
		fmt.Fprintf(r.writer, "%d. %s\n", i+1, step)
	}
}

func (r *Reporter) OperationProgress(ctx context.Context, handle domain.OperationHandle, status domain.OperationStatus, elapsed time.Duration) {
	fmt.Fprintf(r.writer, "  [%s] operation %s: %s\n",
		elapsed.Round(time.Second), handle.OperationID, status.State)
}
