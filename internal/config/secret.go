package config

import "encoding/json"

// redactedMarker replaces secret values on every serialization path.
const redactedMarker = "[REDACTED]"

// Secret holds a credential that must never reach logs or serialized
// output. Marshaling and the fmt verbs all emit the redaction marker;
// the raw value is only reachable through Value, which keeps accidental
// leak sites easy to grep for. Unmarshaling accepts raw values, so
// config files and environment variables work as usual.
type Secret string

// Value returns the raw credential.
func (s Secret) Value() string {
	return string(s)
}

// IsSet reports whether a value was configured.
func (s Secret) IsSet() bool {
	return s != ""
}

func (s Secret) String() string {
	return s.redacted()
}

// GoString keeps %#v from leaking the value either.
func (s Secret) GoString() string {
	return "Secret(" + redactedMarker + ")"
}

// redacted maps a set secret to the marker and an empty one to "".
func (s Secret) redacted() string {
	if s == "" {
		return ""
	}
	return redactedMarker
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.redacted()), nil
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.redacted())
}

func (s Secret) MarshalYAML() (interface{}, error) {
	return s.redacted(), nil
}

func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}

func (s *Secret) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*s = Secret(raw)
	return nil
}
