// Package batch turns free-form URL lists into accepted, duplicate and
// invalid sets.
package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"newsletter-go/pkg/urlnorm"
)

// MaxManifestBytes caps manifest files read from disk or stdin.
const MaxManifestBytes = 5 * 1024 * 1024

var (
	ErrTooLarge = fmt.Errorf("manifest exceeds %d MB limit", MaxManifestBytes/(1024*1024))
	ErrNotUTF8  = errors.New("manifest must be UTF-8 encoded")
)

// Result is the outcome of one analysis. It is never mutated after Analyze
// returns; a new call produces a new Result.
type Result struct {
	// Accepted holds unique canonical URLs in first-seen order
	Accepted []string `json:"accepted"`
	// Duplicates holds each canonical URL seen more than once, recorded once
	Duplicates []string `json:"duplicates"`
	// Invalid holds the trimmed original lines that failed to parse
	Invalid []string `json:"invalid"`
}

// Empty reports whether nothing can be submitted.
func (r Result) Empty() bool {
	return len(r.Accepted) == 0
}

// Analyze splits text into lines, skips blanks and '#' comments, and
// normalizes the rest.
func Analyze(text string) Result {
	result := Result{
		Accepted:   []string{},
		Duplicates: []string{},
		Invalid:    []string{},
	}
	seen := make(map[string]bool)
	duplicated := make(map[string]bool)

	lines := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	for _, line := range lines {
		candidate := strings.TrimSpace(line)
		if candidate == "" || strings.HasPrefix(candidate, "#") {
			continue
		}

		canonical, err := urlnorm.Normalize(candidate)
		if err != nil {
			result.Invalid = append(result.Invalid, candidate)
			continue
		}

		if seen[canonical] {
			if !duplicated[canonical] {
				duplicated[canonical] = true
				result.Duplicates = append(result.Duplicates, canonical)
			}
			continue
		}
		seen[canonical] = true
		result.Accepted = append(result.Accepted, canonical)
	}

	return result
}

// ReadFrom analyzes a manifest stream of at most MaxManifestBytes.
func ReadFrom(r io.Reader) (Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxManifestBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	if len(data) > MaxManifestBytes {
		return Result{}, ErrTooLarge
	}
	if !utf8.Valid(data) {
		return Result{}, ErrNotUTF8
	}
	return Analyze(string(data)), nil
}

// LoadFile analyzes the manifest at path.
func LoadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	return ReadFrom(f)
}
