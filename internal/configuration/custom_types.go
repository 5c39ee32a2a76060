package configuration

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Optional is a generic container for optional configuration values.
type Optional[T any] struct {
	// Value holds the actual value as unmarshalled.
	Value T
	// Present indicates if the value was present in the configuration.
	Present bool
}

// Get returns the value if present, otherwise the zero value.
func (o *Optional[T]) Get() T {
	return o.Value
}

// DefaultTrueBool is a boolean type that defaults to true if not present.
type DefaultTrueBool struct {
	Optional[bool]
}

// Get returns the boolean value, defaulting to true if not present.
func (b *DefaultTrueBool) Get() bool {
	if !b.Present {
		return true
	}
	return b.Value
}

// DefaultTrueBoolHookFunc returns a mapstructure decode hook function for DefaultTrueBool.
func DefaultTrueBoolHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{}) (interface{}, error) {

		// Only target our specific named type
		if t != reflect.TypeOf(DefaultTrueBool{}) {
			return data, nil
		}

		var val bool
		switch v := data.(type) {
		case bool:
			val = v
		case string:
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return data, nil
			}
			val = parsed
		default:
			return data, nil
		}

		return DefaultTrueBool{
			Optional: Optional[bool]{
				Value:   val,
				Present: true,
			},
		}, nil
	}
}

// MappingFanHookFunc returns a mapstructure decode hook that parses the
// compact "name" / "name*modifier" syntax of mapping fan entries into
// MappingFanConfig values.
func MappingFanHookFunc() mapstructure.DecodeHookFuncType {
	fanRefType := reflect.TypeOf(MappingFanConfig{})

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != fanRefType {
			return data, nil
		}

		str, ok := data.(string)
		if !ok {
			// structured form: { fan: ..., modifier: ... }
			return data, nil
		}

		return ParseMappingFan(str)
	}
}

// ParseMappingFan parses a "name" or "name*modifier" mapping fan entry.
func ParseMappingFan(value string) (MappingFanConfig, error) {
	parts := strings.Split(value, "*")
	switch len(parts) {
	case 1:
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return MappingFanConfig{}, fmt.Errorf("empty fan reference")
		}
		return MappingFanConfig{Fan: name, Modifier: 1.0}, nil
	case 2:
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return MappingFanConfig{}, fmt.Errorf("empty fan reference in %q", value)
		}
		modifier, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return MappingFanConfig{}, fmt.Errorf("invalid fan modifier in %q: %w", value, err)
		}
		return MappingFanConfig{Fan: name, Modifier: modifier}, nil
	default:
		return MappingFanConfig{}, fmt.Errorf("invalid fan reference %q, expected \"name\" or \"name*modifier\"", value)
	}
}
