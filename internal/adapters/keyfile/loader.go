// Package keyfile loads service-account signing keys from disk.
//
// Three formats are accepted and detected by content: PKCS#12 archives
// (the legacy ".p12" download, unlocked with a passphrase), PEM-encoded
// private keys, and JSON service-account key files.
package keyfile

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"software.sslmate.com/src/go-pkcs12"

	"github.com/bft-labs/pubship/internal/ports"
)

// ErrUnsupportedKey is returned for keys that are not RSA private keys.
var ErrUnsupportedKey = errors.New("keyfile: unsupported key type")

// Loader implements ports.KeyLoader for files on the local file system.
type Loader struct{}

// NewLoader creates a new file key loader.
func NewLoader() *Loader {
	return &Loader{}
}

// serviceAccountFile is the subset of a JSON key file used here.
type serviceAccountFile struct {
	Type         string `json:"type"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
	ClientEmail  string `json:"client_email"`
	ProjectID    string `json:"project_id"`
}

// Identity is the account metadata carried by JSON key files.
type Identity struct {
	Email   string
	Project string
}

// ReadIdentity returns the client email and project of a JSON key file.
// PEM and PKCS#12 keys carry no identity; a zero Identity is returned for them.
func ReadIdentity(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, fmt.Errorf("read key: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Identity{}, nil
	}
	var f serviceAccountFile
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return Identity{}, fmt.Errorf("parse json key: %w", err)
	}
	return Identity{Email: f.ClientEmail, Project: f.ProjectID}, nil
}

// LoadKey reads and decodes the key at path.
func (l *Loader) LoadKey(path, passphrase string) (ports.SigningKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ports.SigningKey{}, fmt.Errorf("read key: %w", err)
	}
	return Parse(data, passphrase)
}

// Parse decodes key material already in memory.
func Parse(data []byte, passphrase string) (ports.SigningKey, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return ports.SigningKey{}, errors.New("keyfile: empty key material")
	case trimmed[0] == '{':
		return parseJSON(trimmed)
	case bytes.HasPrefix(trimmed, []byte("-----BEGIN")):
		return parsePEM(trimmed, "")
	default:
		return parsePKCS12(data, passphrase)
	}
}

func parseJSON(data []byte) (ports.SigningKey, error) {
	var f serviceAccountFile
	if err := json.Unmarshal(data, &f); err != nil {
		return ports.SigningKey{}, fmt.Errorf("parse json key: %w", err)
	}
	if f.PrivateKey == "" {
		return ports.SigningKey{}, errors.New("keyfile: json key has no private_key")
	}
	return parsePEM([]byte(f.PrivateKey), f.PrivateKeyID)
}

func parsePEM(data []byte, keyID string) (ports.SigningKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return ports.SigningKey{}, errors.New("keyfile: no PEM block found")
	}
	key, err := parsePrivateKey(block.Bytes)
	if err != nil {
		return ports.SigningKey{}, err
	}
	return encode(key, keyID)
}

func parsePKCS12(data []byte, passphrase string) (ports.SigningKey, error) {
	key, _, err := pkcs12.Decode(data, passphrase)
	if err != nil {
		return ports.SigningKey{}, fmt.Errorf("decode pkcs12: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return ports.SigningKey{}, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
	return encode(rsaKey, "")
}

func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
		}
		return rsaKey, nil
	}
	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// encode normalizes every accepted format to a PKCS#8 PEM block.
func encode(key *rsa.PrivateKey, keyID string) (ports.SigningKey, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return ports.SigningKey{}, fmt.Errorf("marshal private key: %w", err)
	}
	return ports.SigningKey{
		PEM:   pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}),
		KeyID: keyID,
	}, nil
}
