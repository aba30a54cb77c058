package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	awsadapter "github.com/olusolaa/landing-zone-baseline/internal/adapters/platform/aws"
	"github.com/olusolaa/landing-zone-baseline/internal/config"
	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
	"github.com/olusolaa/landing-zone-baseline/internal/core/service"
	"github.com/olusolaa/landing-zone-baseline/internal/errors"
	"github.com/olusolaa/landing-zone-baseline/internal/log"
	"github.com/olusolaa/landing-zone-baseline/internal/manifest"
	"github.com/olusolaa/landing-zone-baseline/internal/policy"
	"github.com/olusolaa/landing-zone-baseline/internal/prereq"
	"github.com/olusolaa/landing-zone-baseline/internal/provision"
	"github.com/olusolaa/landing-zone-baseline/internal/reporting/text"
)

// BuildApplicationFromViper assembles the full pipeline: configuration,
// logger, AWS clients, prerequisite checkers, manifest builder, provisioner,
// policy deployer and the orchestration controller.
func BuildApplicationFromViper(ctx context.Context, v *viper.Viper) (*Application, error) {
	cfg := config.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}

	logCfg := log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Infof(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(ctx, cfg); err != nil {
		var errorDetails strings.Builder
		errorDetails.WriteString("Configuration validation failed:")
		validationErrors := err.(validator.ValidationErrors)
		for _, fe := range validationErrors {
			errorDetails.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		wrappedErr := errors.NewUserFacing(errors.CodeConfigValidation, errorDetails.String(), "Please check your configuration file or flags.")
		logger.Errorf(ctx, wrappedErr, "Configuration validation failed")
		return nil, wrappedErr
	}
	logger.Debugf(ctx, "Configuration validated successfully")

	factory, err := awsadapter.NewClientFactory(ctx, cfg.AWS.HomeRegion, cfg.AWS.Profile,
		logger.WithFields(map[string]any{"component": "aws"}))
	if err != nil {
		return nil, err
	}
	logger.Infof(ctx, "AWS clients configured for region %s", factory.Region())

	reporter, err := text.NewReporter(text.Config{}, logger.WithFields(map[string]any{"component": "reporter"}))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize reporter")
	}

	prereqValidator := buildPrereqValidator(cfg, factory, logger)

	builder := manifest.NewBuilder(cfg, factory.Organizations(),
		logger.WithFields(map[string]any{"component": "manifest"}))

	provisioner := provision.NewProvisioner(factory.ControlTower(),
		logger.WithFields(map[string]any{"component": "provision"}),
		provision.WithProgressReporter(reporter))

	deployer := policy.NewDeployer(factory.Organizations(),
		logger.WithFields(map[string]any{"component": "policy"}))
	targets := policy.NewTargetResolver(factory.Organizations(),
		logger.WithFields(map[string]any{"component": "policy"}))

	controller := service.NewController(cfg, prereqValidator, builder, provisioner, deployer, targets,
		reporter, logger.WithFields(map[string]any{"component": "controller"}))

	logger.Infof(ctx, "Application bootstrap complete")
	return &Application{
		Config:      cfg,
		Logger:      logger,
		Reporter:    reporter,
		Controller:  controller,
		Validator:   prereqValidator,
		Provisioner: provisioner,
		Deployer:    deployer,
	}, nil
}

func buildPrereqValidator(cfg *config.Config, factory *awsadapter.ClientFactory, logger ports.Logger) *prereq.Validator {
	requiredOUs := []string{cfg.Organization.SecurityOUName}
	if cfg.Organization.SandboxOUName != "" {
		requiredOUs = append(requiredOUs, cfg.Organization.SandboxOUName)
	}

	return prereq.NewValidator(
		logger.WithFields(map[string]any{"component": "prereq"}),
		&prereq.CredentialsChecker{Client: factory.STS(), Region: factory.Region()},
		&prereq.OrganizationChecker{Client: factory.Organizations(), STS: factory.STS()},
		&prereq.OrganizationalUnitsChecker{Client: factory.Organizations(), RequiredOUs: requiredOUs},
		&prereq.MemberAccountsChecker{
			Client:       factory.Organizations(),
			AccountNames: []string{cfg.Accounts.LogArchive.Name, cfg.Accounts.Audit.Name},
		},
		&prereq.ExecutionRolesChecker{Client: factory.IAM(), RoleNames: prereq.DefaultExecutionRoles()},
		&prereq.ExistingLandingZoneChecker{Client: factory.ControlTower()},
	)
}
