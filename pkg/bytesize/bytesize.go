// Package bytesize parses and formats byte sizes and transfer rates, as
// used for buffer geometry flags, fast-tier capacities, and bandwidth
// throttles.
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Binary byte size units.
const (
	B  int64 = 1
	KB int64 = 1024
	MB int64 = 1024 * KB
	GB int64 = 1024 * MB
	TB int64 = 1024 * GB
)

// sizeUnits maps unit suffixes to byte multipliers. Kubernetes-style Ki/Mi
// and full KiB/MiB spellings resolve to the same binary units.
var sizeUnits = map[string]int64{
	"":    B,
	"B":   B,
	"K":   KB,
	"KB":  KB,
	"KI":  KB,
	"KIB": KB,
	"M":   MB,
	"MB":  MB,
	"MI":  MB,
	"MIB": MB,
	"G":   GB,
	"GB":  GB,
	"GI":  GB,
	"GIB": GB,
	"T":   TB,
	"TB":  TB,
	"TI":  TB,
	"TIB": TB,
}

// rateUnits maps rate suffixes to bytes-per-second factors. Bit rates use
// SI prefixes, byte rates binary ones.
var rateUnits = map[string]float64{
	"bps":  0.125,
	"kbps": 1000.0 / 8,
	"mbps": 1000.0 * 1000 / 8,
	"gbps": 1000.0 * 1000 * 1000 / 8,
	"b/s":  1,
	"kb/s": float64(KB),
	"mb/s": float64(MB),
	"gb/s": float64(GB),
}

var valuePattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*([a-zA-Z/]*)\s*$`)

func split(s, kind string) (float64, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, "", fmt.Errorf("empty %s string", kind)
	}
	matches := valuePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, "", fmt.Errorf("invalid %s format: %q", kind, s)
	}
	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid number: %q", matches[1])
	}
	return value, matches[2], nil
}

// Parse converts a size string like "2048", "2KB", or "1.5Mi" into bytes.
// Units are binary and case-insensitive; a bare number means bytes.
func Parse(s string) (int64, error) {
	value, unit, err := split(s, "size")
	if err != nil {
		return 0, err
	}
	mult, ok := sizeUnits[strings.ToUpper(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown unit: %q", unit)
	}
	return int64(value * float64(mult)), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) int64 {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders a byte count with the largest unit that keeps the value
// at or above one.
func Format(bytes int64) string {
	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// ParseRate converts a rate string like "10mbps" or "4KB/s" into bytes per
// second.
func ParseRate(s string) (int64, error) {
	value, unit, err := split(s, "rate")
	if err != nil {
		return 0, err
	}
	factor, ok := rateUnits[strings.ToLower(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown rate unit: %q", unit)
	}
	return int64(value * factor), nil
}

// FormatRate renders bytes per second as a bit rate.
func FormatRate(bytesPerSec int64) string {
	bits := bytesPerSec * 8
	switch {
	case bits >= 1000*1000*1000:
		return fmt.Sprintf("%.2f Gbps", float64(bits)/(1000*1000*1000))
	case bits >= 1000*1000:
		return fmt.Sprintf("%.2f Mbps", float64(bits)/(1000*1000))
	case bits >= 1000:
		return fmt.Sprintf("%.2f Kbps", float64(bits)/1000)
	default:
		return fmt.Sprintf("%d bps", bits)
	}
}

// Size is a byte count that unmarshals from YAML as either a bare number
// of bytes or a string with units ("2KB", "256Ki").
type Size int64

// UnmarshalYAML implements yaml.Unmarshaler for Size.
func (s *Size) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		bytes, err := Parse(str)
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", str, err)
		}
		*s = Size(bytes)
		return nil
	}

	var i int64
	if err := unmarshal(&i); err == nil {
		*s = Size(i)
		return nil
	}

	return fmt.Errorf("size must be a number or a string with units (e.g. 2KB, 256Ki)")
}

// Bytes returns the size in bytes.
func (s Size) Bytes() int64 {
	return int64(s)
}

// Int returns the size as an int, for APIs that take buffer lengths.
func (s Size) Int() int {
	return int(s)
}

// String returns a human-readable representation.
func (s Size) String() string {
	return Format(int64(s))
}

// Rate is a transfer rate in bytes per second that unmarshals from YAML as
// either a bare number or a rate string ("10mbps", "4KB/s").
type Rate int64

// UnmarshalYAML implements yaml.Unmarshaler for Rate.
func (r *Rate) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		bps, err := ParseRate(str)
		if err != nil {
			return fmt.Errorf("invalid rate %q: %w", str, err)
		}
		*r = Rate(bps)
		return nil
	}

	var i int64
	if err := unmarshal(&i); err == nil {
		*r = Rate(i)
		return nil
	}

	return fmt.Errorf("rate must be a number or a string with units (e.g. 10mbps, 4KB/s)")
}

// BytesPerSecond returns the rate in bytes per second.
func (r Rate) BytesPerSecond() int64 {
	return int64(r)
}

// String returns a human-readable bit rate.
func (r Rate) String() string {
	return FormatRate(int64(r))
}
