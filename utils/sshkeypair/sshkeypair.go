// Package sshkeypair ensures an OpenSSH key pair exists on the host so its
// public half can be authorized inside the container.
package sshkeypair

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

const defaultComment = "nspawn-vm-prep"

// KeyPairInfo describes the ensured key pair.
type KeyPairInfo struct {
	PrivatePath   string
	PublicPath    string
	AuthorizedKey string
	KeyGenerated  bool
	PublicCreated bool
}

// Option configures EnsureKeyPair behavior.
type Option func(*ensureOptions) error

type ensureOptions struct {
	comment string
}

// WithComment overrides the comment appended to the public key line.
func WithComment(comment string) Option {
	return func(opts *ensureOptions) error {
		comment = strings.TrimSpace(comment)
		if comment == "" {
			return OptionError{Reason: "comment must not be empty"}
		}
		if strings.ContainsAny(comment, "\r\n") {
			return OptionError{Reason: "comment must be a single line"}
		}
		opts.comment = comment
		return nil
	}
}

// EnsureKeyPair reuses the key at privatePath or generates an ed25519 pair.
// An existing key of any type ssh can parse is accepted; a missing .pub file
// is derived from it.
func EnsureKeyPair(privatePath string, opts ...Option) (*KeyPairInfo, error) {
	privatePath = strings.TrimSpace(privatePath)
	if privatePath == "" {
		return nil, PathError{Reason: "private key path is required"}
	}

	cfg := ensureOptions{comment: defaultComment}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	pubPath := privatePath + ".pub"
	info := &KeyPairInfo{
		PrivatePath: privatePath,
		PublicPath:  pubPath,
	}

	privExists, err := fileExists(privatePath)
	if err != nil {
		return nil, FileStatError{Path: privatePath, Err: err}
	}
	pubExists, err := fileExists(pubPath)
	if err != nil {
		return nil, FileStatError{Path: pubPath, Err: err}
	}

	if !privExists {
		line, err := generateAndWritePair(privatePath, pubPath, cfg.comment)
		if err != nil {
			return nil, err
		}
		info.AuthorizedKey = line
		info.KeyGenerated = true
		info.PublicCreated = true
		return info, nil
	}

	signer, err := readSigner(privatePath)
	if err != nil {
		return nil, err
	}

	if pubExists {
		line, err := readPublicKey(pubPath)
		if err != nil {
			return nil, err
		}
		info.AuthorizedKey = line
		return info, nil
	}

	line := authorizedLine(signer.PublicKey(), cfg.comment)
	if err := writeFile(pubPath, []byte(line+"\n"), 0o644); err != nil {
		return nil, err
	}
	info.AuthorizedKey = line
	info.PublicCreated = true
	return info, nil
}

func generateAndWritePair(privatePath, publicPath, comment string) (string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", KeyGenerateError{Err: err}
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return "", KeyGenerateError{Err: err}
	}
	if err := writeFile(privatePath, pem.EncodeToMemory(block), 0o600); err != nil {
		return "", err
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", KeyGenerateError{Err: err}
	}
	line := authorizedLine(sshPub, comment)
	if err := writeFile(publicPath, []byte(line+"\n"), 0o644); err != nil {
		return "", err
	}
	return line, nil
}

func authorizedLine(pub ssh.PublicKey, comment string) string {
	line := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub)))
	if comment != "" {
		line = fmt.Sprintf("%s %s", line, comment)
	}
	return line
}

func readSigner(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, KeyReadError{Path: path, Err: err}
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, KeyParseError{Path: path, Err: err}
	}
	return signer, nil
}

func readPublicKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", KeyReadError{Path: path, Err: err}
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey(data); err != nil {
		return "", KeyParseError{Path: path, Err: err}
	}
	return strings.TrimSpace(string(data)), nil
}

func writeFile(path string, data []byte, mode os.FileMode) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return KeyWriteError{Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return KeyWriteError{Path: path, Err: err}
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
