package scanner

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ComputeHashes calculates SHA-256 and MD5 digests over the full byte stream
// in bounded memory. An I/O failure here is fatal for the whole scan: there
// is no such thing as a partial hash.
func ComputeHashes(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	sha := sha256.New()
	md := md5.New()
	if _, err := io.Copy(io.MultiWriter(sha, md), f); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}

	return map[string]string{
		"sha256": hex.EncodeToString(sha.Sum(nil)),
		"md5":    hex.EncodeToString(md.Sum(nil)),
	}, nil
}

// MatchBlocklist intersects computed digests with a known-bad digest set.
// The comparison is case-insensitive and purely local: no file contents
// leave the process. Matches are returned in a stable order.
func MatchBlocklist(hashes map[string]string, blocklist map[string]struct{}) []string {
	if len(blocklist) == 0 {
		return nil
	}
	algorithms := make([]string, 0, len(hashes))
	for alg := range hashes {
		algorithms = append(algorithms, alg)
	}
	sort.Strings(algorithms)

	var hits []string
	for _, alg := range algorithms {
		value := strings.ToLower(hashes[alg])
		if _, ok := blocklist[value]; ok {
			hits = append(hits, value)
		}
	}
	return hits
}
