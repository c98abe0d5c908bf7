// Package labeling derives stable document identities and folder-based
// classification labels from storage paths. All functions are pure.
package labeling

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"slices"
	"strings"
)

// Other is the sentinel label for documents with no folder below the root.
// Records carrying it are treated as unlabeled.
const Other = "OTHER"

const (
	maxNameLength = 40
	digestLength  = 32
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// DeriveID returns a deterministic identifier for a storage path.
// The readable prefix comes from the file name and the suffix from a SHA-256
// digest of the full path, so distinct paths never share an identifier.
func DeriveID(storagePath string) string {
	sum := sha256.Sum256([]byte(storagePath))
	digest := hex.EncodeToString(sum[:])[:digestLength]

	name := strings.TrimSuffix(path.Base(storagePath), path.Ext(storagePath))
	name = unsafeChars.ReplaceAllString(name, "_")
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	if name == "" || name == "." || name == "_" {
		name = "document"
	}

	return name + "_" + digest
}

// AssignLabel returns the first folder segment below root, with spaces
// normalized to underscores. Paths with no folder below root return Other.
func AssignLabel(root, storagePath string) string {
	rel, ok := strings.CutPrefix(storagePath, root)
	if !ok {
		return Other
	}

	folder, rest, found := strings.Cut(rel, "/")
	if !found || rest == "" {
		return Other
	}

	label := strings.ReplaceAll(strings.TrimSpace(folder), " ", "_")
	if label == "" {
		return Other
	}
	return label
}

// Labeled reports whether label counts toward training thresholds.
func Labeled(label string) bool {
	return label != "" && label != Other
}

// Accepts reports whether a storage object is eligible for intake: it must sit
// under root, not be a folder placeholder, and carry an accepted content type.
func Accepts(root string, contentTypes []string, name, contentType string) bool {
	if !strings.HasPrefix(name, root) || strings.HasSuffix(name, "/") {
		return false
	}

	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	return slices.ContainsFunc(contentTypes, func(t string) bool {
		return strings.EqualFold(t, mediaType)
	})
}
