package connection

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"
)

const (
	serviceName  = "lazysearch"
	passwordSalt = "lazysearch-keyring-salt-v1"
)

// ErrPasswordNotFound is returned when the keyring holds no password for a database
var ErrPasswordNotFound = errors.New("password not found in keyring")

// PasswordStore reads and writes database passwords in the OS keyring, with an
// encrypted file fallback under the config directory
type PasswordStore struct {
	ring keyring.Keyring
}

// NewPasswordStore opens the keyring with platform-appropriate backends
func NewPasswordStore(configDir string) (*PasswordStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backendsForPlatform(),
		FileDir:         filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword(), nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &PasswordStore{ring: ring}, nil
}

// NewPasswordStoreWith wraps an already opened keyring
func NewPasswordStoreWith(ring keyring.Keyring) *PasswordStore {
	return &PasswordStore{ring: ring}
}

func backendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "linux":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.FileBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

// deriveFilePassword is stable per machine and user
func deriveFilePassword() string {
	host, _ := os.Hostname()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}
	if user == "" {
		user = fmt.Sprintf("uid-%d", os.Getuid())
	}
	hash := sha256.Sum256([]byte(host + user + passwordSalt))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// Save stores the password of cfg
func (ps *PasswordStore) Save(cfg Config, password string) error {
	if password == "" {
		return nil
	}
	err := ps.ring.Set(keyring.Item{
		Key:         makeKey(cfg),
		Data:        []byte(password),
		Label:       fmt.Sprintf("lazysearch: %s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database),
		Description: "PostgreSQL connection password for lazysearch",
	})
	if err != nil {
		return fmt.Errorf("failed to save password to keyring: %w", err)
	}
	return nil
}

// Get returns the password stored for cfg
func (ps *PasswordStore) Get(cfg Config) (string, error) {
	item, err := ps.ring.Get(makeKey(cfg))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrPasswordNotFound
		}
		return "", fmt.Errorf("failed to read password from keyring: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes the password stored for cfg
func (ps *PasswordStore) Delete(cfg Config) error {
	err := ps.ring.Remove(makeKey(cfg))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete password from keyring: %w", err)
	}
	return nil
}

// LookupPassword fills an empty password from the store. A missing entry
// leaves cfg unchanged.
func (ps *PasswordStore) LookupPassword(cfg Config) (Config, error) {
	if cfg.Password != "" || cfg.IsSQLite() {
		return cfg, nil
	}
	password, err := ps.Get(cfg)
	if errors.Is(err, ErrPasswordNotFound) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	cfg.Password = password
	return cfg, nil
}

// makeKey creates a unique key for password storage
func makeKey(cfg Config) string {
	return fmt.Sprintf("%s:%d:%s:%s", cfg.Host, cfg.Port, cfg.Database, cfg.User)
}
