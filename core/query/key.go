package query

import (
	"strconv"
	"strings"
)

// separator between key segments in the encoded form
const sep = ":"

// Key identifies a cached query: {"students"}, {"students", "12"}, {"students", "12", "pensions"}.
type Key []string

// NewKey builds a key from strings and ints.
func NewKey(segments ...interface{}) Key {
	k := make(Key, 0, len(segments))
	for _, s := range segments {
		switch v := s.(type) {
		case string:
			k = append(k, v)
		case int:
			k = append(k, strconv.Itoa(v))
		case Key:
			k = append(k, v...)
		}
	}
	return k
}

// With returns a copy of k extended with segments.
func (k Key) With(segments ...interface{}) Key {
	return NewKey(append([]interface{}{k}, segments...)...)
}

func (k Key) String() string {
	return strings.Join(k, sep)
}

// HasPrefix reports whether k starts with all the segments of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, seg := range prefix {
		if k[i] != seg {
			return false
		}
	}
	return true
}

// MatchesEncoded reports whether the encoded key s starts with the segments of prefix.
func MatchesEncoded(s string, prefix Key) bool {
	p := prefix.String()
	return s == p || strings.HasPrefix(s, p+sep)
}
