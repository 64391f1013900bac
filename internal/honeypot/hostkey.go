// Knockwatch - SSH Honeypot with Geographic Attack Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/knockwatch

package honeypot

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"

	"github.com/tomtom215/knockwatch/internal/logging"
)

const hostKeyBits = 2048

// LoadOrCreateHostKey returns the host key stored at path, creating it if the
// file is missing or unreadable. An empty path returns a fresh key that is not
// persisted.
func LoadOrCreateHostKey(path string) (ssh.Signer, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			signer, perr := ssh.ParsePrivateKey(data)
			if perr == nil {
				return signer, nil
			}
			logging.Warn().Err(perr).Str("path", path).Msg("Host key unreadable, generating a new one")
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read host key: %w", err)
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, hostKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("host key signer: %w", err)
	}

	if path != "" {
		block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
		if err := writeKeyFile(path, pem.EncodeToMemory(block)); err != nil {
			return nil, err
		}
		logging.Info().
			Str("path", path).
			Str("fingerprint", ssh.FingerprintSHA256(signer.PublicKey())).
			Msg("Generated SSH host key")
	}
	return signer, nil
}

func writeKeyFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create host key directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".hostkey-*")
	if err != nil {
		return fmt.Errorf("create host key: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write host key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write host key: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("chmod host key: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("install host key: %w", err)
	}
	return nil
}
