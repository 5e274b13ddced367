package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/homeward/settlement-backend/pkg/config"
	"github.com/homeward/settlement-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

// keyPrefixes lists the secret and restricted key prefixes each mode accepts.
var keyPrefixes = map[string][]string{
	testEnv: {"sk_test_", "rk_test_"},
	liveEnv: {"sk_live_", "rk_live_"},
}

var (
	errAPIKeyRequired = errors.New("stripe api key is required")
	errSecretRequired = errors.New("stripe webhook secret is required")
)

// Client is one set of Stripe credentials: the platform account or a
// franchise's own account resolved through Registry.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
}

// NewClient builds the platform client from configuration.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	client, err := newClient(cfg.Environment(), cfg.APIKey, cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("platform stripe credentials: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_env", client.environment), "stripe platform client initialized")
	}
	return client, nil
}

func newClient(env, apiKey, signingSecret string) (*Client, error) {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" {
		env = testEnv
	}
	prefixes, ok := keyPrefixes[env]
	if !ok {
		return nil, fmt.Errorf("stripe environment must be %q or %q, got %q", testEnv, liveEnv, env)
	}

	apiKey = strings.TrimSpace(apiKey)
	signingSecret = strings.TrimSpace(signingSecret)
	switch {
	case apiKey == "":
		return nil, errAPIKeyRequired
	case signingSecret == "":
		return nil, errSecretRequired
	case !hasAnyPrefix(apiKey, prefixes):
		// a live key in a test deployment would move real money
		return nil, fmt.Errorf("stripe environment %q requires a key starting with %s", env, strings.Join(prefixes, " or "))
	}

	return &Client{
		api:           stripe.NewClient(apiKey),
		environment:   env,
		signingSecret: signingSecret,
	}, nil
}

func hasAnyPrefix(value string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return false
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret is the secret webhook payloads for this account are signed with.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}
