// Package idgen produces the unique tokens qatrack embeds in stored
// filenames, plus general record identifiers.
//
// Stored filenames need tokens that are collision-free under concurrent
// uploads and roughly time-ordered so a project folder lists in upload
// order; bare millisecond timestamps satisfy neither on their own.
package idgen

import (
	"crypto/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator producing RFC 9562 UUID v7 strings:
// time-sortable and globally unique.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// FileToken returns a Generator for stored-filename prefixes: the current
// unix-millisecond timestamp joined with a short random base-36 suffix.
// The timestamp keeps folder listings in upload order; the suffix breaks
// same-millisecond collisions.
func FileToken() Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	const suffixLen = 6
	return func() string {
		buf := make([]byte, suffixLen)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		b := make([]byte, suffixLen)
		for i := range b {
			b[i] = alphabet[int(buf[i])%len(alphabet)]
		}
		return strconv.FormatInt(time.Now().UnixMilli(), 10) + string(b)
	}
}

// Default is the record-identifier default: UUIDv7.
var Default Generator = UUIDv7()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// NewFileToken produces a stored-filename token using the package default.
var NewFileToken Generator = FileToken()
