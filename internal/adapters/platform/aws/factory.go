package aws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/controltower"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/landing-zone-baseline/internal/core/ports"
	apperrors "github.com/olusolaa/landing-zone-baseline/internal/errors"
)

// ClientFactory builds and caches the service clients one deployment attempt
// needs. Clients are lazy fields owned by the factory instance, never shared
// globally; a new controller gets a new factory.
type ClientFactory struct {
	cfg    aws.Config
	logger ports.Logger

	mu          sync.Mutex
	stsClient   *sts.Client
	orgClient   *organizations.Client
	ctClient    *controltower.Client
	iamClient   *iam.Client
}

func NewClientFactory(ctx context.Context, region, profile string, logger ports.Logger) (*ClientFactory, error) {
	if logger == nil {
		return nil, apperrors.New(apperrors.CodeConfigValidation, "logger cannot be nil for AWS client factory")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigValidation, "failed to load AWS configuration")
	}

	return &ClientFactory{cfg: cfg, logger: logger}, nil
}

func (f *ClientFactory) Region() string {
	return f.cfg.Region
}

func (f *ClientFactory) STS() *sts.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stsClient == nil {
		f.stsClient = sts.NewFromConfig(f.cfg)
	}
	return f.stsClient
}

func (f *ClientFactory) Organizations() *organizations.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orgClient == nil {
		f.orgClient = organizations.NewFromConfig(f.cfg)
	}
	return f.orgClient
}

func (f *ClientFactory) ControlTower() *controltower.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctClient == nil {
		f.ctClient = controltower.NewFromConfig(f.cfg)
	}
	return f.ctClient
}

func (f *ClientFactory) IAM() *iam.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.iamClient == nil {
		f.iamClient = iam.NewFromConfig(f.cfg)
	}
	return f.iamClient
}
