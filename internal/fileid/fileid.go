// Package fileid fingerprints source documents by content.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Checksum returns the hex sha256 of the file contents at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Snapshot returns the checksums of the named files in dir, keyed by name.
// Files that cannot be read are left out.
func Snapshot(dir string, names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		sum, err := Checksum(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		out[name] = sum
	}
	return out
}

// Digest combines a snapshot into one checksum that changes whenever a file is
// added, removed, or modified.
func Digest(snapshot map[string]string) string {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "%s\x00%s\n", name, snapshot[name])
	}
	return hex.EncodeToString(h.Sum(nil))
}
