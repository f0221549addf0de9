package imagemeta

import (
	"fmt"
	"net/url"
	"strings"
)

// Classify determines whether a raw record is a creation or a removal and
// decodes its object key. Event names containing "ObjectRemoved" classify as
// removals, names containing "ObjectCreated" as creations; any other event
// name is unhandled and returns (nil, nil) so the caller skips it with no
// side effect.
//
// The key is decoded exactly once: literal "+" maps to space, then percent
// sequences are decoded. An undecodable or empty key fails with
// ErrMalformedEvent.
func Classify(rec RawObjectRecord) (*ObjectEvent, error) {
	var kind EventKind
	switch {
	case strings.Contains(rec.EventName, "ObjectRemoved"):
		kind = EventKindRemoved
	case strings.Contains(rec.EventName, "ObjectCreated"):
		kind = EventKindCreated
	default:
		return nil, nil
	}

	key, err := decodeObjectKey(rec.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: object key %q: %v", ErrMalformedEvent, rec.Key, err)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: empty object key", ErrMalformedEvent)
	}

	return &ObjectEvent{
		Bucket: rec.Bucket,
		Key:    key,
		Kind:   kind,
	}, nil
}

// decodeObjectKey reverses the store's key encoding. PathUnescape is used
// deliberately: it leaves "+" alone, so the explicit replacement is applied
// once and percent-decoding cannot double-convert.
func decodeObjectKey(key string) (string, error) {
	return url.PathUnescape(strings.ReplaceAll(key, "+", " "))
}
