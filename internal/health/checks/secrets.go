package checks

import (
	"context"
	"fmt"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"

	"github.com/dailycast/dailycast/internal/health"
)

// DefaultSentinelSecret is the secret the probe reads. It exists solely
// for the health check; access to it proves IAM and API availability for
// the real credentials stored alongside it.
const DefaultSentinelSecret = "pipeline-health-probe"

// SecretAccessor abstracts the secret-version read the probe performs.
type SecretAccessor interface {
	Access(ctx context.Context, name string) ([]byte, error)
}

// SecretsConfig holds configuration for the secrets checker.
type SecretsConfig struct {
	// Client is the Secret Manager client (required unless Accessor is
	// set).
	Client *secretmanager.Client

	// ProjectID is the GCP project holding the secrets (required).
	ProjectID string

	// Secret is the sentinel secret name (optional).
	Secret string

	// Accessor overrides the secret accessor (tests only).
	Accessor SecretAccessor

	// Timeout overrides the per-check timeout (optional).
	Timeout time.Duration

	// Logger for checker operations.
	Logger zerolog.Logger
}

// SecretsChecker verifies the secrets service is reachable and the
// pipeline's service account can read from it.
type SecretsChecker struct {
	projectID string
	secret    string
	accessor  SecretAccessor
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewSecretsChecker creates a new secrets checker.
func NewSecretsChecker(cfg SecretsConfig) *SecretsChecker {
	secret := cfg.Secret
	if secret == "" {
		secret = DefaultSentinelSecret
	}

	accessor := cfg.Accessor
	if accessor == nil {
		accessor = &gcpSecretAccessor{client: cfg.Client}
	}

	return &SecretsChecker{
		projectID: cfg.ProjectID,
		secret:    secret,
		accessor:  accessor,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
}

// Service returns the checked service.
func (c *SecretsChecker) Service() health.Service {
	return health.ServiceSecrets
}

// Check accesses the latest version of the sentinel secret.
func (c *SecretsChecker) Check(ctx context.Context) health.Check {
	return guard(ctx, health.ServiceSecrets, c.timeout, func(ctx context.Context) (health.Status, map[string]any, error) {
		name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.projectID, c.secret)

		payload, err := c.accessor.Access(ctx, name)
		if err != nil {
			return "", nil, fmt.Errorf("accessing secret %s: %w", c.secret, err)
		}
		if len(payload) == 0 {
			return "", nil, fmt.Errorf("secret %s payload is empty", c.secret)
		}

		return health.StatusHealthy, map[string]any{
			"secret": c.secret,
		}, nil
	})
}

// gcpSecretAccessor is the production accessor.
type gcpSecretAccessor struct {
	client *secretmanager.Client
}

func (a *gcpSecretAccessor) Access(ctx context.Context, name string) ([]byte, error) {
	resp, err := a.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return nil, err
	}
	return resp.GetPayload().GetData(), nil
}
