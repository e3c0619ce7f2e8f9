package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yeti47/agentbench/core/kvstore"
)

// KeyPrefix is the key-value namespace holding every saved token.
const KeyPrefix = "tokens/"

type TokenRepository interface {
	// GetByID returns nil, nil when the token does not exist
	GetByID(ctx context.Context, id string) (*Token, error)
	GetAll(ctx context.Context) ([]*Token, error)
	Save(ctx context.Context, token *Token) error
	Delete(ctx context.Context, id string) error
	// DeleteAll removes every token and returns how many were removed
	DeleteAll(ctx context.Context) (int, error)
}

// kvTokenRepository stores tokens as JSON documents under KeyPrefix.
type kvTokenRepository struct {
	store kvstore.Store
}

func NewTokenRepository(store kvstore.Store) TokenRepository {
	return &kvTokenRepository{store: store}
}

func tokenKey(id string) string {
	return KeyPrefix + id
}

func (r *kvTokenRepository) GetByID(ctx context.Context, id string) (*Token, error) {
	value, found, err := r.store.Get(ctx, tokenKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var token Token
	if err := json.Unmarshal([]byte(value), &token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", id, err)
	}
	return &token, nil
}

func (r *kvTokenRepository) GetAll(ctx context.Context) ([]*Token, error) {
	keys, err := r.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}

	tokens := make([]*Token, 0, len(keys))
	for _, key := range keys {
		token, err := r.GetByID(ctx, strings.TrimPrefix(key, KeyPrefix))
		if err != nil {
			return nil, err
		}
		if token != nil {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

func (r *kvTokenRepository) Save(ctx context.Context, token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token %s: %w", token.ID, err)
	}
	return r.store.Set(ctx, tokenKey(token.ID), string(data))
}

func (r *kvTokenRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, tokenKey(id))
}

func (r *kvTokenRepository) DeleteAll(ctx context.Context) (int, error) {
	keys, err := r.store.Keys(ctx, KeyPrefix)
	if err != nil {
		return 0, err
	}

	for i, key := range keys {
		if err := r.store.Delete(ctx, key); err != nil {
			return i, err
		}
	}
	return len(keys), nil
}
