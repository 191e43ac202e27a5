package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatHex renders n the way the device expects numeric parameters, e.g. 0x0000000a.
func FormatHex(n uint64, digits int) string {
	return fmt.Sprintf("0x%0*x", digits, n)
}

// FormatYN maps an optional boolean to Y/N. Nil stays nil so the field is omitted.
func FormatYN(value *bool) *string {
	if value == nil {
		return nil
	}
	if *value {
		return StringPtr("Y")
	}
	return StringPtr("N")
}

// ParseHex reads a device hex value. Empty means zero.
func ParseHex(text string) (uint64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	return strconv.ParseUint(text, 16, 64)
}

func StringPtr(s string) *string {
	return &s
}

func BoolPtr(b bool) *bool {
	return &b
}
