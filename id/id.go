// Package id defines the prefixed public identifier type used at every
// external boundary of HookFreight (URLs, JSON bodies, log lines).
//
// Every id is a UUIDv4 with its dashes stripped, prefixed with a short tag
// identifying the owning entity: "app_", "end_", "evt_", "dlv_". Ids are
// immutable once assigned and never reused.
package id

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prefix identifies the entity type encoded in an ID.
type Prefix string

// Prefix constants for all HookFreight entity types.
const (
	PrefixApp      Prefix = "app"
	PrefixEndpoint Prefix = "end"
	PrefixEvent    Prefix = "evt"
	PrefixDelivery Prefix = "dlv"
)

const suffixLen = 32 // UUIDv4 hex digits, dashes stripped

// ID is the primary identifier type for all HookFreight entities.
//
//nolint:recvcheck // value receivers for read-only methods, pointer receivers for Scan/UnmarshalText.
type ID struct {
	prefix Prefix
	suffix string // 32 lowercase hex characters
	valid  bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new id with the given prefix.
func New(prefix Prefix) ID {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	return ID{prefix: prefix, suffix: suffix, valid: true}
}

// Parse parses a "prefix_suffix" string into an ID, validating that the
// suffix is exactly 32 lowercase hex characters.
func Parse(s string) (ID, error) {
	idx := strings.IndexByte(s, '_')
	if idx <= 0 || idx == len(s)-1 {
		return Nil, fmt.Errorf("id: parse %q: missing prefix separator", s)
	}

	prefix := Prefix(s[:idx])
	suffix := s[idx+1:]
	if err := validateSuffix(suffix); err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{prefix: prefix, suffix: suffix, valid: true}, nil
}

// ParseWithPrefix parses s and validates that its prefix matches expected.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.prefix != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.prefix)
	}
	return parsed, nil
}

// MustParse is like Parse but panics on error. Use only for hardcoded values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}
	return parsed
}

func validateSuffix(suffix string) error {
	if len(suffix) != suffixLen {
		return fmt.Errorf("suffix must be %d hex characters, got %d", suffixLen, len(suffix))
	}
	for i := 0; i < len(suffix); i++ {
		c := suffix[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
		if !isHex {
			return fmt.Errorf("suffix contains non-hex character %q", c)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewAppID generates a new unique app id.
func NewAppID() ID { return New(PrefixApp) }

// NewEndpointID generates a new unique endpoint id.
func NewEndpointID() ID { return New(PrefixEndpoint) }

// NewEventID generates a new unique event id.
func NewEventID() ID { return New(PrefixEvent) }

// NewDeliveryID generates a new unique delivery id.
func NewDeliveryID() ID { return New(PrefixDelivery) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseAppID parses s and validates the "app" prefix.
func ParseAppID(s string) (ID, error) { return ParseWithPrefix(s, PrefixApp) }

// ParseEndpointID parses s and validates the "end" prefix.
func ParseEndpointID(s string) (ID, error) { return ParseWithPrefix(s, PrefixEndpoint) }

// ParseEventID parses s and validates the "evt" prefix.
func ParseEventID(s string) (ID, error) { return ParseWithPrefix(s, PrefixEvent) }

// ParseDeliveryID parses s and validates the "dlv" prefix.
func ParseDeliveryID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDelivery) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full "prefix_suffix" representation, or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return string(i.prefix) + "_" + i.suffix
}

// Prefix returns the prefix component of this id.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return i.prefix
}

// IsNil reports whether this id is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer so optional foreign-key columns store NULL
// for the Nil id.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}
	return i.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil
		return nil
	}
	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil
			return nil
		}
		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil
			return nil
		}
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
