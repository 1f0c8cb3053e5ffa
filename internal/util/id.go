package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns an opaque identifier, optionally namespaced with prefix
// (e.g. "client_4f0c...").
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if prefix == "" {
		return raw
	}
	return prefix + "_" + raw
}
