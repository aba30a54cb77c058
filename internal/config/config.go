package config

import (
	"github.com/olusolaa/landing-zone-baseline/internal/log"
)

type Config struct {
	Settings       SettingsConfig       `mapstructure:"settings"`
	AWS            AWSConfig            `mapstructure:"aws" validate:"required"`
	Organization   OrganizationConfig   `mapstructure:"organization"`
	Accounts       AccountsConfig       `mapstructure:"accounts" validate:"required"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	IdentityCenter IdentityCenterConfig `mapstructure:"identity_center"`
	LandingZone    LandingZoneConfig    `mapstructure:"landing_zone"`
	Policy         PolicyConfig         `mapstructure:"policy"`
}

type SettingsConfig struct {
	LogLevel  log.Level  `mapstructure:"log_level"`
	LogFormat log.Format `mapstructure:"log_format"`
}

type AWSConfig struct {
	HomeRegion      string   `mapstructure:"home_region" validate:"required"`
	Profile         string   `mapstructure:"profile"`
	GovernedRegions []string `mapstructure:"governed_regions"`
}

type OrganizationConfig struct {
	SecurityOUName string   `mapstructure:"security_ou_name" validate:"required"`
	SandboxOUName  string   `mapstructure:"sandbox_ou_name"`
	AdditionalOUs  []string `mapstructure:"additional_ous"`
}

type AccountsConfig struct {
	LogArchive AccountRef `mapstructure:"log_archive" validate:"required"`
	Audit      AccountRef `mapstructure:"audit" validate:"required"`
}

type AccountRef struct {
	Name string `mapstructure:"name" validate:"required"`
}

type LoggingConfig struct {
	CloudTrailEnabled bool   `mapstructure:"cloudtrail_enabled"`
	RetentionDays     int    `mapstructure:"retention_days" validate:"omitempty,gte=1,lte=5475"`
	KMSKeyARN         string `mapstructure:"kms_key_arn"`
}

type IdentityCenterConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LandingZoneConfig struct {
	Version        string `mapstructure:"version"`
	TimeoutMinutes int    `mapstructure:"timeout_minutes" validate:"omitempty,gte=1"`
}

type PolicyConfig struct {
	Tier      string   `mapstructure:"tier" validate:"omitempty,oneof=basic standard strict"`
	TargetOUs []string `mapstructure:"target_ous"`
}

// GovernedRegions returns the configured region list with the home region
// always included first.
func (c *Config) GovernedRegions() []string {
	regions := c.AWS.GovernedRegions
	for _, r := range regions {
		if r == c.AWS.HomeRegion {
			return regions
		}
	}
	return append([]string{c.AWS.HomeRegion}, regions...)
}

// PolicyTargetOUNames returns the OU names guardrail policies attach to:
// explicit targets when configured, otherwise the security OU plus any
// additional OUs.
func (c *Config) PolicyTargetOUNames() []string {
	if len(c.Policy.TargetOUs) > 0 {
		return c.Policy.TargetOUs
	}
	names := []string{c.Organization.SecurityOUName}
	names = append(names, c.Organization.AdditionalOUs...)
	return names
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:  log.LevelInfo,
			LogFormat: log.FormatText,
		},
		Organization: OrganizationConfig{
			SecurityOUName: "Security",
			SandboxOUName:  "Sandbox",
		},
		Logging: LoggingConfig{
			CloudTrailEnabled: true,
		},
		LandingZone: LandingZoneConfig{
			Version:        "3.3",
			TimeoutMinutes: 90,
		},
		Policy: PolicyConfig{
			Tier: "standard",
		},
	}
}
