package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "changectx"

	// KeyringJiraTokenItem is the key for the Jira API token
	KeyringJiraTokenItem = "jira-token"
)

// KeyringManager handles secure credential storage in OS keychain
type KeyringManager struct {
	logger logrus.FieldLogger
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager(logger logrus.FieldLogger) *KeyringManager {
	return &KeyringManager{
		logger: logger.WithField("component", "keyring"),
	}
}

// GetJiraToken retrieves the Jira token from OS keychain.
// A missing entry is not an error and yields "".
func (km *KeyringManager) GetJiraToken() (string, error) {
	token, err := keyring.Get(KeyringService, KeyringJiraTokenItem)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}

	km.logger.Debug("jira token retrieved from keychain")
	return token, nil
}

// ResolveJiraToken fills cfg.Jira.Token from the keychain when neither the
// environment nor a config file provided one. Keychain failures (headless CI,
// no secret service) leave the token empty for validation to report.
func (km *KeyringManager) ResolveJiraToken(cfg *Config) {
	if cfg.Jira.Token != "" {
		return
	}

	token, err := km.GetJiraToken()
	if err != nil {
		km.logger.WithError(err).Debug("keychain not available")
		return
	}
	cfg.Jira.Token = token
}

// MaskToken masks a token for display
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", token[:4], token[len(token)-4:])
}
