package stripe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/pkg/db/models"
)

// AccountLookup resolves the credentials a franchise charges with. A nil
// account with a nil error means the franchise uses the platform account.
type AccountLookup interface {
	FindByFranchiseID(ctx context.Context, franchiseID uuid.UUID) (*models.FranchisePaymentAccount, error)
}

// Registry hands out one cached Client per franchise.
type Registry struct {
	lookup   AccountLookup
	platform *Client

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

func NewRegistry(lookup AccountLookup, platform *Client) (*Registry, error) {
	if lookup == nil {
		return nil, errors.New("franchise account lookup required")
	}
	return &Registry{
		lookup:   lookup,
		platform: platform,
		clients:  map[uuid.UUID]*Client{},
	}, nil
}

// ForFranchise returns the gateway bound to the franchise's credentials.
func (r *Registry) ForFranchise(ctx context.Context, franchiseID uuid.UUID) (Gateway, error) {
	client, err := r.client(ctx, franchiseID)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// SigningSecret returns the webhook secret for the franchise's account.
func (r *Registry) SigningSecret(ctx context.Context, franchiseID uuid.UUID) (string, error) {
	client, err := r.client(ctx, franchiseID)
	if err != nil {
		return "", err
	}
	return client.SigningSecret(), nil
}

// Forget drops a cached client so rotated credentials are picked up.
func (r *Registry) Forget(franchiseID uuid.UUID) {
	r.mu.Lock()
	delete(r.clients, franchiseID)
	r.mu.Unlock()
}

func (r *Registry) client(ctx context.Context, franchiseID uuid.UUID) (*Client, error) {
	r.mu.RLock()
	cached, ok := r.clients[franchiseID]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	account, err := r.lookup.FindByFranchiseID(ctx, franchiseID)
	if err != nil {
		return nil, fmt.Errorf("load franchise payment account: %w", err)
	}

	var client *Client
	if account == nil {
		if r.platform == nil {
			return nil, fmt.Errorf("franchise %s has no payment account", franchiseID)
		}
		client = r.platform
	} else {
		env := testEnv
		if r.platform != nil {
			env = r.platform.Environment()
		}
		client, err = newClient(env, account.SecretKey, account.WebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("franchise %s credentials: %w", franchiseID, err)
		}
	}

	r.mu.Lock()
	r.clients[franchiseID] = client
	r.mu.Unlock()
	return client, nil
}
