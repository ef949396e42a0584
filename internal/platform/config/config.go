package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultReadURLTTL   = 7 * 24 * time.Hour
	defaultUploadLimit  = 10 << 20

	secretScheme = "secret://"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firestore FirestoreConfig
	Storage   StorageConfig
	Mail      MailConfig
	Auth      AuthConfig
	Jobs      JobsConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores document database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig configures the media bucket and signed read URLs.
type StorageConfig struct {
	MediaBucket     string
	SignerKey       string
	ReadURLTTL      time.Duration
	MaxUploadBytes  int64
	AllowedPrefixes []string
}

// MailConfig configures the outbound enquiry mailer.
type MailConfig struct {
	SendGridAPIKey string
	FromName       string
	FromAddress    string
	EnquiryInbox   string
}

// AuthConfig holds the admin console API token.
type AuthConfig struct {
	AdminToken string
}

// JobsConfig names the Pub/Sub topic enquiry events are published to.
// Publishing is disabled when the topic is empty.
type JobsConfig struct {
	EnquiryTopic string
}

// SecretResolver resolves secret:// references to their values.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts a function to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// Option customises Load behaviour.
type Option func(*loader)

type loader struct {
	lookup   func(string) (string, bool)
	resolver SecretResolver
	envFile  string
}

// WithLookup overrides the environment lookup, used by tests.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(l *loader) {
		if lookup != nil {
			l.lookup = lookup
		}
	}
}

// WithSecretResolver enables secret:// indirection for sensitive values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(l *loader) {
		l.resolver = resolver
	}
}

// WithEnvFile overrides the .env file consulted before the environment.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
	}
}

// Load assembles the configuration from the .env file and environment,
// resolving secret:// references and validating required values.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	l := loader{lookup: os.LookupEnv, envFile: defaultEnvFile}
	for _, opt := range opts {
		if opt != nil {
			opt(&l)
		}
	}

	if l.lookup == nil {
		l.lookup = os.LookupEnv
	}
	if l.envFile != "" {
		// Missing .env is fine; explicit environment always wins.
		_ = godotenv.Load(l.envFile)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         l.stringOr("API_PORT", defaultPort),
			ReadTimeout:  l.durationOr("API_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: l.durationOr("API_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  l.durationOr("API_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    l.stringOr("FIRESTORE_PROJECT_ID", l.stringOr("GOOGLE_CLOUD_PROJECT", "")),
			EmulatorHost: l.stringOr("FIRESTORE_EMULATOR_HOST", ""),
		},
		Storage: StorageConfig{
			MediaBucket:     l.stringOr("STORAGE_MEDIA_BUCKET", ""),
			ReadURLTTL:      l.durationOr("STORAGE_READ_URL_TTL", defaultReadURLTTL),
			MaxUploadBytes:  int64(l.intOr("STORAGE_MAX_UPLOAD_BYTES", defaultUploadLimit)),
			AllowedPrefixes: splitList(l.stringOr("STORAGE_ALLOWED_CONTENT_TYPES", "image/")),
		},
		Mail: MailConfig{
			FromName:     l.stringOr("MAIL_FROM_NAME", "Stayline Supplies"),
			FromAddress:  l.stringOr("MAIL_FROM_ADDRESS", ""),
			EnquiryInbox: l.stringOr("MAIL_ENQUIRY_INBOX", ""),
		},
		Jobs: JobsConfig{
			EnquiryTopic: l.stringOr("JOBS_ENQUIRY_TOPIC", ""),
		},
	}

	var err error
	if cfg.Storage.SignerKey, err = l.secretOr(ctx, "STORAGE_SIGNER_KEY", ""); err != nil {
		return Config{}, err
	}
	if cfg.Mail.SendGridAPIKey, err = l.secretOr(ctx, "MAIL_SENDGRID_API_KEY", ""); err != nil {
		return Config{}, err
	}
	if cfg.Auth.AdminToken, err = l.secretOr(ctx, "ADMIN_API_TOKEN", ""); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.Firestore.ProjectID) == "" {
		missing = append(missing, "FIRESTORE_PROJECT_ID")
	}
	if strings.TrimSpace(c.Auth.AdminToken) == "" {
		missing = append(missing, "ADMIN_API_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required values: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (l loader) stringOr(key, fallback string) string {
	if value, ok := l.lookup(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func (l loader) durationOr(key string, fallback time.Duration) time.Duration {
	raw := l.stringOr(key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func (l loader) intOr(key string, fallback int) int {
	raw := l.stringOr(key, "")
	if raw == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(raw, "%d", &parsed); err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// secretOr reads the key and, when the value is a secret:// reference, runs
// it through the configured resolver.
func (l loader) secretOr(ctx context.Context, key, fallback string) (string, error) {
	raw := l.stringOr(key, fallback)
	if !strings.HasPrefix(raw, secretScheme) {
		return raw, nil
	}
	if l.resolver == nil {
		return "", fmt.Errorf("config: %s references a secret but no resolver is configured", key)
	}
	resolved, err := l.resolver.ResolveSecret(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", key, err)
	}
	return strings.TrimSpace(resolved), nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
