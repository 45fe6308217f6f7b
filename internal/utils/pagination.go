package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination holds offset pagination parameters.
type Pagination struct {
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

// ParsePagination reads limit and skip query params with sane defaults.
func ParsePagination(c *fiber.Ctx) Pagination {
	return NewPagination(parseInt(c.Query("limit"), DefaultLimit), parseInt(c.Query("skip"), 0))
}

// NewPagination clamps limit to [1, MaxLimit] and skip to >= 0.
func NewPagination(limit, skip int) Pagination {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if skip < 0 {
		skip = 0
	}
	return Pagination{Limit: limit, Skip: skip}
}

// Window returns the [start, end) slice bounds of the page within total items.
func (p Pagination) Window(total int) (int, int) {
	start := p.Skip
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

// Meta is the pagination block of list responses.
func (p Pagination) Meta(total int64) fiber.Map {
	return fiber.Map{
		"limit":       p.Limit,
		"skip":        p.Skip,
		"total_items": total,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
