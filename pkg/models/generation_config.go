package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationConfig is a versioned record of the prompt template and model
// settings used by the analysis generator. Records are append-only: changing
// the configuration creates a new version, and every analysis stores the ID
// of the config that produced it, so any historical score can be traced back
// to the exact prompts and model behind it.
type GenerationConfig struct {
	ID                 uuid.UUID `json:"id"`
	Version            int       `json:"version"`
	SystemPrompt       string    `json:"system_prompt"`
	UserPromptTemplate string    `json:"user_prompt_template"`
	Provider           string    `json:"provider"`
	Model              string    `json:"model"`
	MaxTokens          int       `json:"max_tokens"`
	CreatedAt          time.Time `json:"created_at"`
}

// APIKey is a stored, hashed API credential. The engine only verifies keys;
// issuance happens out of band (a bootstrap key can come from config).
type APIKey struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	Active     bool       `json:"active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
