package utils

import (
	"errors"
	"strconv"
)

// Page is one page of a listing as sent to clients
type Page[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasMore     bool `json:"hasMore"`
}

// NewPage builds a page; totalPages is ceil(total/limit)
func NewPage[T any](items []T, page, limit int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{
		Items:       items,
		CurrentPage: page,
		TotalPages:  totalPages,
		HasMore:     page < totalPages,
	}
}

// MaxPage caps page numbers so page*limit offsets cannot overflow
const MaxPage = 1_000_000

// ParsePage reads a 1-based page number; anything missing, unparsable or below 1 is page 1.
// Pages past MaxPage are clamped to it.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && page > 0 {
		return MaxPage
	}
	if err != nil || page < 1 {
		return 1
	}
	return min(page, MaxPage)
}

// Offset returns the number of rows to skip for a 1-based page
func Offset(page, limit int) int {
	page = max(1, min(page, MaxPage))
	return (page - 1) * limit
}
