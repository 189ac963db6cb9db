package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsAPI is the part of the Secrets Manager client we use.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type cachedSecret struct {
	value     string
	fetchedAt time.Time
}

// SecretsClient reads string secrets, caching each value for ttl.
type SecretsClient struct {
	api   SecretsAPI
	ttl   time.Duration
	mu    sync.RWMutex
	cache map[string]cachedSecret
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return NewSecretsClientWithAPI(secretsmanager.NewFromConfig(cfg), 10*time.Minute)
}

func NewSecretsClientWithAPI(api SecretsAPI, ttl time.Duration) *SecretsClient {
	return &SecretsClient{api: api, ttl: ttl, cache: make(map[string]cachedSecret)}
}

// GetSecret returns the string value of the named secret.
func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	c, ok := s.cache[name]
	s.mu.RUnlock()
	if ok && time.Since(c.fetchedAt) < s.ttl {
		return c.value, nil
	}

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	s.mu.Lock()
	s.cache[name] = cachedSecret{value: *out.SecretString, fetchedAt: time.Now()}
	s.mu.Unlock()
	return *out.SecretString, nil
}

// GetSecretMap decodes a JSON object secret such as
// {"STOREFRONT_DOMAIN": "...", "STOREFRONT_TOKEN": "..."}.
func (s *SecretsClient) GetSecretMap(ctx context.Context, name string) (map[string]string, error) {
	raw, err := s.GetSecret(ctx, name)
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("secret %s is not a JSON object: %w", name, err)
	}
	return m, nil
}
