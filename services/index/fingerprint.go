package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// fingerprintFile computes the hex SHA-256 digest of a file's content.
// Digest equality is the sole authority for classifying a file unchanged;
// filesystem timestamps alone are never trusted for that decision.
func fingerprintFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for fingerprinting: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file for fingerprinting: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
