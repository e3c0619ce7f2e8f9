package tokens

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yeti47/agentbench/core/ccc/logging"
	"github.com/yeti47/agentbench/core/encryption"
	"github.com/yeti47/agentbench/core/hygiene"
)

const MaxNameLength = 100

type TokenVault interface {
	// SaveToken encrypts req.Secret under password and stores the token
	SaveToken(ctx context.Context, req SaveTokenRequest, password []byte) (*Token, error)
	// GetToken returns a TokenNotFoundError for unknown ids
	GetToken(ctx context.Context, id string) (*Token, error)
	// ListTokens returns all tokens sorted by name
	ListTokens(ctx context.Context) ([]*Token, error)
	// DeleteToken removes a token. Deleting an unknown id is not an error.
	DeleteToken(ctx context.Context, id string) error
	// UnlockToken decrypts the token value. The caller must wipe the result.
	UnlockToken(ctx context.Context, id string, password []byte) ([]byte, error)
	// ChangePassword re-encrypts the token value under newPassword
	ChangePassword(ctx context.Context, id string, oldPassword, newPassword []byte) error
	// PurgeAll deletes every stored token and returns how many were deleted
	PurgeAll(ctx context.Context) (int, error)
}

type tokenVault struct {
	logger logging.Logger
	repo   TokenRepository
	cipher *encryption.EnvelopeCipher
	now    func() time.Time
}

func NewTokenVault(logger logging.Logger, repo TokenRepository, cipher *encryption.EnvelopeCipher) *tokenVault {

	if logger == nil {
		logger = logging.NopLogger
	}
	if cipher == nil {
		cipher = encryption.NewEnvelopeCipher(nil)
	}

	return &tokenVault{
		logger: logger,
		repo:   repo,
		cipher: cipher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func validateName(name string) error {
	if name == "" {
		return NewTokenValidationError("name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return NewTokenValidationError("name is too long")
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return NewTokenValidationError("endpoint cannot be empty")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return NewTokenValidationError("endpoint is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewTokenValidationError("endpoint must use http or https")
	}
	if u.Host == "" {
		return NewTokenValidationError("endpoint must include a host")
	}
	return nil
}

func (s *tokenVault) SaveToken(ctx context.Context, req SaveTokenRequest, password []byte) (*Token, error) {
	defer hygiene.SecureWipe(req.Secret)

	name := strings.TrimSpace(req.Name)
	endpoint := strings.TrimSpace(req.Endpoint)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}
	if len(req.Secret) == 0 {
		return nil, NewTokenValidationError("token value cannot be empty")
	}

	existingTokens, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to retrieve tokens", "error", err)
		return nil, err
	}

	var token *Token
	for _, existing := range existingTokens {
		if existing.ID == req.ID {
			token = existing
		} else if strings.EqualFold(existing.Name, name) {
			s.logger.Warn("Token name already in use", "name", name)
			return nil, NewTokenAlreadyExistsError(name)
		}
	}

	now := s.now()
	if req.ID == "" {
		token = &Token{ID: uuid.NewString(), CreatedAt: now}
		s.logger.Info("Creating token", "id", token.ID, "name", name)
	} else if token == nil {
		return nil, NewTokenNotFoundError(req.ID)
	} else {
		s.logger.Info("Replacing token", "id", token.ID, "name", name)
	}

	envelope, err := s.cipher.Seal(req.Secret, password)
	if err != nil {
		s.logger.Error("Failed to encrypt token", "id", token.ID, "error", err)
		return nil, err
	}

	token.Name = name
	token.Endpoint = endpoint
	token.Envelope = *envelope
	token.UpdatedAt = now

	if err := s.repo.Save(ctx, token); err != nil {
		s.logger.Error("Failed to save token", "id", token.ID, "error", err)
		return nil, err
	}

	s.logger.Info("Successfully saved token", "id", token.ID)
	return token, nil
}

func (s *tokenVault) GetToken(ctx context.Context, id string) (*Token, error) {
	token, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to retrieve token", "id", id, "error", err)
		return nil, err
	}
	if token == nil {
		return nil, NewTokenNotFoundError(id)
	}
	return token, nil
}

func (s *tokenVault) ListTokens(ctx context.Context) ([]*Token, error) {
	tokens, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to retrieve tokens", "error", err)
		return nil, err
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return strings.ToLower(tokens[i].Name) < strings.ToLower(tokens[j].Name)
	})
	return tokens, nil
}

func (s *tokenVault) DeleteToken(ctx context.Context, id string) error {
	s.logger.Info("Deleting token", "id", id)

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete token", "id", id, "error", err)
		return err
	}
	return nil
}

func (s *tokenVault) UnlockToken(ctx context.Context, id string, password []byte) ([]byte, error) {
	token, err := s.GetToken(ctx, id)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.cipher.Open(&token.Envelope, password)
	if err != nil {
		// never log the cause; the error is deliberately generic
		s.logger.Warn("Failed to unlock token", "id", id)
		return nil, err
	}

	s.logger.Info("Token unlocked", "id", id)
	return plaintext, nil
}

func (s *tokenVault) ChangePassword(ctx context.Context, id string, oldPassword, newPassword []byte) error {
	token, err := s.GetToken(ctx, id)
	if err != nil {
		return err
	}

	plaintext, err := s.cipher.Open(&token.Envelope, oldPassword)
	if err != nil {
		s.logger.Warn("Password change rejected", "id", id)
		return err
	}
	defer hygiene.SecureWipe(plaintext)

	envelope, err := s.cipher.Seal(plaintext, newPassword)
	if err != nil {
		s.logger.Error("Failed to re-encrypt token", "id", id, "error", err)
		return err
	}

	token.Envelope = *envelope
	token.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, token); err != nil {
		s.logger.Error("Failed to save token", "id", id, "error", err)
		return err
	}

	s.logger.Info("Token password changed", "id", id)
	return nil
}

func (s *tokenVault) PurgeAll(ctx context.Context) (int, error) {
	count, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("Failed to purge tokens", "deleted", count, "error", err)
		return count, err
	}

	s.logger.Warn("Purged all stored tokens", "count", count)
	return count, nil
}
