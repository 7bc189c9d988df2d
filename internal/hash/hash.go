// Package hash computes payload digests for installed mods.
//
// A file payload is digested with SHA-256 over its contents. A folder payload
// is digested over every regular file in the tree, in lexical path order,
// feeding each slash-separated relative path followed by the file's own
// digest. Verify uses these digests to report payloads that were modified
// outside modslayer.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Hasher provides an abstraction for payload hashing.
type Hasher interface {
	// HashFile computes the digest of the file at path.
	HashFile(path string) (string, error)

	// HashTree computes the digest of the directory tree rooted at path.
	HashTree(path string) (string, error)
}

// SHA256Hasher implements Hasher using SHA-256.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// HashFile computes the SHA-256 hash of the file at the given path.
func (h *SHA256Hasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashTree computes a SHA-256 digest over all regular files below root.
// Empty directories do not contribute to the digest.
func (h *SHA256Hasher) HashTree(root string) (string, error) {
	tree := sha256.New()

	// WalkDir visits entries in lexical order, which keeps the digest stable.
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sum, err := h.HashFile(path)
		if err != nil {
			return err
		}

		fmt.Fprintf(tree, "%s\x00%s\n", filepath.ToSlash(rel), sum)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to hash tree: %w", err)
	}

	return hex.EncodeToString(tree.Sum(nil)), nil
}

// FakeHasher implements Hasher with deterministic hashes for testing.
type FakeHasher struct {
	hashes map[string]string
}

// NewFakeHasher creates a new FakeHasher.
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{
		hashes: make(map[string]string),
	}
}

// SetHash sets the hash returned for a specific path.
func (h *FakeHasher) SetHash(path, hash string) {
	h.hashes[path] = hash
}

// HashFile returns the predetermined hash for the given path.
func (h *FakeHasher) HashFile(path string) (string, error) {
	if hash, ok := h.hashes[path]; ok {
		return hash, nil
	}
	return "fakehash", nil
}

// HashTree returns the predetermined hash for the given path.
func (h *FakeHasher) HashTree(path string) (string, error) {
	return h.HashFile(path)
}
