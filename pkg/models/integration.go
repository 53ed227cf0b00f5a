package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IntegrationKind identifies the issue-tracker behind an integration.
type IntegrationKind string

const (
	IntegrationJira        IntegrationKind = "jira"
	IntegrationAzureDevOps IntegrationKind = "azure_devops"
	IntegrationServiceNow  IntegrationKind = "servicenow"
)

// IntegrationConfig is the tagged variant behind an integration's settings.
// Each kind validates its own required fields.
type IntegrationConfig interface {
	Kind() IntegrationKind
	Validate() error
}

// JiraConfig configures a Jira Cloud integration.
type JiraConfig struct {
	URL        string `json:"url"`
	Email      string `json:"email"`
	ProjectKey string `json:"project_key,omitempty"`
}

func (c JiraConfig) Kind() IntegrationKind { return IntegrationJira }

func (c JiraConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("jira integration requires url")
	}
	if c.Email == "" {
		return fmt.Errorf("jira integration requires email")
	}
	return nil
}

// AzureDevOpsConfig configures an Azure DevOps integration.
type AzureDevOpsConfig struct {
	URL     string `json:"url"`
	Project string `json:"project"`
}

func (c AzureDevOpsConfig) Kind() IntegrationKind { return IntegrationAzureDevOps }

func (c AzureDevOpsConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("azure_devops integration requires url")
	}
	if c.Project == "" {
		return fmt.Errorf("azure_devops integration requires project")
	}
	return nil
}

// ServiceNowConfig configures a ServiceNow integration.
type ServiceNowConfig struct {
	URL      string `json:"url"`
	Username string `json:"username"`
}

func (c ServiceNowConfig) Kind() IntegrationKind { return IntegrationServiceNow }

func (c ServiceNowConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("servicenow integration requires url")
	}
	if c.Username == "" {
		return fmt.Errorf("servicenow integration requires username")
	}
	return nil
}

// ParseIntegrationConfig decodes and validates the config variant for a kind.
func ParseIntegrationConfig(kind IntegrationKind, raw json.RawMessage) (IntegrationConfig, error) {
	var cfg IntegrationConfig
	switch kind {
	case IntegrationJira:
		var c JiraConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode jira config: %w", err)
		}
		cfg = c
	case IntegrationAzureDevOps:
		var c AzureDevOpsConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode azure_devops config: %w", err)
		}
		cfg = c
	case IntegrationServiceNow:
		var c ServiceNowConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode servicenow config: %w", err)
		}
		cfg = c
	default:
		return nil, fmt.Errorf("unknown integration kind %q", kind)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Integration stores issue-tracker credentials and settings, scoped to a
// project or global when ProjectID is nil. The access token is stored
// AES-GCM encrypted and never serialized.
type Integration struct {
	ID             uuid.UUID       `json:"id"`
	ProjectID      *uuid.UUID      `json:"project_id,omitempty"`
	Kind           IntegrationKind `json:"kind"`
	Name           string          `json:"name"`
	Config         json.RawMessage `json:"config"`
	EncryptedToken string          `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
