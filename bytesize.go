package resio

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ByteSize is a size in bytes written in configuration as "16MiB", "512KB"
// or a plain number. Both IEC (KiB, MiB, ...) and SI (KB, MB, ...) units are
// accepted, case-insensitively.
type ByteSize int64

// byteUnits maps lowercase unit suffixes to their multipliers.
var byteUnits = map[string]int64{
	"b":   1,
	"kb":  1000,
	"mb":  1000 * 1000,
	"gb":  1000 * 1000 * 1000,
	"tb":  1000 * 1000 * 1000 * 1000,
	"kib": 1 << 10,
	"mib": 1 << 20,
	"gib": 1 << 30,
	"tib": 1 << 40,
}

// ParseByteSize parses a human readable size such as "1.5MiB".
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty byte size")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ByteSize(n), nil
	}

	// Split number and unit
	i := len(s)
	for i > 0 && !unicode.IsDigit(rune(s[i-1])) && s[i-1] != '.' {
		i--
	}
	num, unit := strings.TrimSpace(s[:i]), strings.TrimSpace(s[i:])
	if num == "" || unit == "" {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	mult, ok := byteUnits[strings.ToLower(unit)]
	if !ok {
		return 0, fmt.Errorf("invalid byte size %q: unknown unit %q", s, unit)
	}

	// big.Float keeps fractional values like "0.5MiB" exact.
	val, _, err := big.ParseFloat(num, 10, 256, big.ToNearestEven)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	val.Mul(val, new(big.Float).SetInt64(mult))

	n, acc := val.Int64()
	if acc != big.Exact {
		return 0, fmt.Errorf("invalid byte size %q: not a whole number of bytes in int64 range", s)
	}

	return ByteSize(n), nil
}

// Int64 returns the size in bytes.
func (b ByteSize) Int64() int64 {
	return int64(b)
}

// String formats the size with the largest IEC unit that divides it exactly.
func (b ByteSize) String() string {
	n := int64(b)
	for _, u := range []struct {
		name string
		size int64
	}{{"TiB", 1 << 40}, {"GiB", 1 << 30}, {"MiB", 1 << 20}, {"KiB", 1 << 10}} {
		if n != 0 && n%u.size == 0 {
			return strconv.FormatInt(n/u.size, 10) + u.name
		}
	}

	return strconv.FormatInt(n, 10)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	v, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = v

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalJSON accepts a quoted size string or a number of bytes.
func (b *ByteSize) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return b.UnmarshalText([]byte(s))
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("byte size must be string or number, got: %s", string(data))
	}
	*b = ByteSize(n)

	return nil
}

// UnmarshalYAML parses a size string or a number of bytes.
func (b *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar value for byte size, got %v", node.Kind)
	}

	return b.UnmarshalText([]byte(node.Value))
}
