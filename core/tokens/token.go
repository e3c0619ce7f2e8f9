package tokens

import (
	"time"

	"github.com/yeti47/agentbench/core/encryption"
)

// Token is a saved bearer token for an agent endpoint. The token value itself
// only exists inside Envelope.
type Token struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Endpoint  string              `json:"endpoint"`
	Envelope  encryption.Envelope `json:"envelope"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type SaveTokenRequest struct {
	// ID is empty for a new token. A non-empty ID replaces an existing token.
	ID       string
	Name     string
	Endpoint string
	// Secret is the bearer token value. It is wiped once encrypted.
	Secret []byte
}
