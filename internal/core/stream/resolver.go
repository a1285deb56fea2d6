package stream

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stratahq/strata/internal/core/storage"
)

// Separator joins the parts of a stream address.
// Kinds and prefixes may not contain it, which keeps addresses injective.
const Separator = "-"

// Resolver maps (entity kind, entity id) to the address of the entity's event stream.
// It holds no state besides its optional prefix and is safe for concurrent use.
type Resolver struct {
	prefix string
}

// NewResolver creates a Resolver. An empty prefix yields "<kind>-<id>" addresses;
// a non-empty one yields "<prefix>-<kind>-<id>".
func NewResolver(prefix string) (*Resolver, error) {
	if strings.Contains(prefix, Separator) {
		return nil, fmt.Errorf("%w: stream prefix %q must not contain %q", storage.ErrInvalidArgument, prefix, Separator)
	}
	return &Resolver{prefix: prefix}, nil
}

// Resolve returns the stream address for one entity.
// The kind is lower-camel-cased ("AppEntity" -> "appEntity") so that callers passing
// type names and callers passing wire names agree on the address.
func (r *Resolver) Resolve(kind, id string) (string, error) {
	if kind == "" {
		return "", fmt.Errorf("%w: entity kind is required", storage.ErrInvalidArgument)
	}
	if id == "" {
		return "", fmt.Errorf("%w: entity id is required", storage.ErrInvalidArgument)
	}
	if strings.Contains(kind, Separator) {
		return "", fmt.Errorf("%w: entity kind %q must not contain %q", storage.ErrInvalidArgument, kind, Separator)
	}

	kind = NormalizeKind(kind)
	if r.prefix == "" {
		return kind + Separator + id, nil
	}
	return r.prefix + Separator + kind + Separator + id, nil
}

// Parse splits an address produced by Resolve back into kind and id.
// The id part may itself contain the separator (UUIDs do).
func (r *Resolver) Parse(address string) (kind, id string, err error) {
	rest := address
	if r.prefix != "" {
		p := r.prefix + Separator
		if !strings.HasPrefix(rest, p) {
			return "", "", fmt.Errorf("%w: address %q does not carry prefix %q", storage.ErrInvalidArgument, address, r.prefix)
		}
		rest = strings.TrimPrefix(rest, p)
	}

	kind, id, ok := strings.Cut(rest, Separator)
	if !ok || kind == "" || id == "" {
		return "", "", fmt.Errorf("%w: malformed stream address %q", storage.ErrInvalidArgument, address)
	}
	return kind, id, nil
}

// NormalizeKind lower-camel-cases an entity kind, the form used in addresses and
// as the document kind of materialized entities.
func NormalizeKind(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	if unicode.IsLower(first) {
		return s
	}
	return string(unicode.ToLower(first)) + s[size:]
}
