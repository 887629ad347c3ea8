package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// HashBuilder accumulates named values in a canonical textual form before hashing.
// Floats are rounded so that results equal to the given precision hash identically.
type HashBuilder struct {
	digits int
	fields map[string]string
}

// NewHashBuilder creates a builder that rounds floats to digits decimal places
func NewHashBuilder(digits int) *HashBuilder {
	return &HashBuilder{digits: digits, fields: make(map[string]string)}
}

// String records a string field
func (b *HashBuilder) String(key, value string) *HashBuilder {
	b.fields[key] = value
	return b
}

// Int records an integer field
func (b *HashBuilder) Int(key string, value int64) *HashBuilder {
	b.fields[key] = fmt.Sprintf("%d", value)
	return b
}

// Float records a float field rounded to the builder precision
func (b *HashBuilder) Float(key string, value float64) *HashBuilder {
	switch {
	case math.IsNaN(value):
		b.fields[key] = "NaN"
	case math.IsInf(value, 0):
		b.fields[key] = fmt.Sprintf("%v", value)
	default:
		b.fields[key] = fmt.Sprintf("%.*f", b.digits, value)
	}
	return b
}

// Bool records a boolean field
func (b *HashBuilder) Bool(key string, value bool) *HashBuilder {
	b.fields[key] = fmt.Sprintf("%t", value)
	return b
}

// Sum hashes the recorded fields in key order
func (b *HashBuilder) Sum() Hash {
	keys := make([]string, 0, len(b.fields))
	for k := range b.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	for _, key := range keys {
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(b.fields[key])
		data.WriteString("|")
	}
	return NewHash([]byte(data.String()))
}
