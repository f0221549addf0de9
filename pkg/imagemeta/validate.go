package imagemeta

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultExtensions is the allowed-extension policy applied to creation
// events when no override is configured.
var DefaultExtensions = []string{"jpeg", "png"}

// ValidateExtension extracts the file extension of key (the lower-cased text
// after the last "."), and checks it against the allowed set. A key with no
// extension or an extension outside the set fails with ErrInvalidFileType
// naming the key; the caller must propagate this so the retry and rejection
// paths engage.
func ValidateExtension(key string, allowed []string) (string, error) {
	idx := strings.LastIndex(key, ".")
	if idx < 0 || idx == len(key)-1 {
		return "", fmt.Errorf("%w: no file extension on key %q", ErrInvalidFileType, key)
	}

	ext := strings.ToLower(key[idx+1:])
	if !slices.Contains(allowed, ext) {
		return "", fmt.Errorf("%w: extension %q on key %q", ErrInvalidFileType, ext, key)
	}
	return ext, nil
}
