// Package textscan finds the first occurrence of a character in text,
// reporting its position in runes.
package textscan

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// SearchResult is either "found at index i" or "not found". The zero value
// is not found.
type SearchResult struct {
	index int
	found bool
}

// Found returns a result holding index i.
func Found(i int) SearchResult {
	return SearchResult{index: i, found: true}
}

// NotFound returns the empty result.
func NotFound() SearchResult {
	return SearchResult{}
}

// Index returns the match position and whether there was a match.
func (r SearchResult) Index() (int, bool) {
	return r.index, r.found
}

// IsFound reports whether the search matched.
func (r SearchResult) IsFound() bool {
	return r.found
}

// Or returns the match position, or fallback when there is none.
func (r SearchResult) Or(fallback int) int {
	if r.found {
		return r.index
	}
	return fallback
}

func (r SearchResult) String() string {
	if !r.found {
		return "not found"
	}
	return fmt.Sprintf("found at index %d", r.index)
}

// MarshalJSON encodes the index, or null when not found.
func (r SearchResult) MarshalJSON() ([]byte, error) {
	if !r.found {
		return []byte("null"), nil
	}
	return json.Marshal(r.index)
}

// UnmarshalJSON accepts an integer index or null.
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	var idx *int
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("textscan: decode search result: %w", err)
	}
	if idx == nil {
		*r = NotFound()
		return nil
	}
	if *idx < 0 {
		return fmt.Errorf("textscan: negative index %d", *idx)
	}
	*r = Found(*idx)
	return nil
}

// FindFirst returns the rune index of the first target in text.
func FindFirst(text string, target rune) SearchResult {
	i := 0
	for _, c := range text {
		if c == target {
			return Found(i)
		}
		i++
	}
	return NotFound()
}

// FindFirstReader is FindFirst over a stream. It stops reading at the first
// match. Invalid UTF-8 bytes count as one rune each, as in FindFirst.
func FindFirstReader(r io.Reader, target rune) (SearchResult, error) {
	br := bufio.NewReader(r)
	for i := 0; ; i++ {
		c, _, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			return NotFound(), nil
		}
		if err != nil {
			return NotFound(), fmt.Errorf("textscan: read: %w", err)
		}
		if c == target {
			return Found(i), nil
		}
	}
}
