// Package config – secrets.go resolves provider credentials from the OS
// keyring (Linux: Secret Service, macOS: Keychain, Windows: Credential
// Manager).
//
// Priority for each secret:
//  1. Environment variable (already applied by Load)
//  2. OS keyring
//  3. config.yaml value (least secure — plaintext on disk)
package config

import (
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "mentorai"

	KeyOpenAI       = "openai_api_key"
	KeyTwilioToken  = "twilio_auth_token"
	KeyPusherSecret = "pusher_secret"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring.
// Returns empty string if not found.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// ResolveSecrets fills empty credential fields from the OS keyring. Values
// already set (env var or config file) are left alone.
func ResolveSecrets(cfg *Config, logger *slog.Logger) {
	resolve := func(dst *string, key, name string) {
		if *dst != "" {
			return
		}
		if v := GetKeyring(key); v != "" {
			*dst = v
			logger.Debug("secret resolved from keyring", "secret", name)
		}
	}
	resolve(&cfg.LLM.APIKey, KeyOpenAI, "llm api key")
	resolve(&cfg.Twilio.AuthToken, KeyTwilioToken, "twilio auth token")
	resolve(&cfg.Pusher.Secret, KeyPusherSecret, "pusher secret")
}
