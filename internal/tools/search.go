// ABOUTME: Shared filter, sort and pagination helpers for the search tools
// ABOUTME: Patterns use search semantics and pages are half-open ranges of the sorted list

package tools

import (
	"cmp"
	"regexp"
	"slices"

	"github.com/enapter/mcp-server/internal/models"
)

// Defaults applied by the dispatch layer when an argument is omitted.
const (
	DefaultPattern     = ".*"
	DefaultOffset      = 0
	DefaultLimit       = 20
	DefaultGranularity = 3600
)

// Page selects a window of a sorted result list.
type Page struct {
	Offset int
	Limit  int
}

// DefaultPage is the first page of DefaultLimit items.
var DefaultPage = Page{Offset: DefaultOffset, Limit: DefaultLimit}

func (p Page) validate() error {
	if p.Offset < 0 {
		return models.Invalid("offset", p.Offset, "must not be negative")
	}
	if p.Limit < 0 {
		return models.Invalid("limit", p.Limit, "must not be negative")
	}
	return nil
}

// paginate returns items[offset:offset+limit], clamped to the slice.
func paginate[T any](items []T, p Page) []T {
	if p.Offset >= len(items) || p.Limit == 0 {
		return []T{}
	}
	end := len(items)
	if p.Limit < end-p.Offset {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}

func compilePattern(field, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, models.Invalid(field, pattern, err.Error())
	}
	return re, nil
}

// sortBy orders items ascending by key, which must be unique per item.
func sortBy[T any](items []T, key func(T) string) {
	slices.SortFunc(items, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}
