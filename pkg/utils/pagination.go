package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams carries the page window for list endpoints. Offset is
// precomputed so handlers slicing in-memory result sets, such as the room
// listing, don't repeat the arithmetic.
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPaginationParams reads the page and limit query parameters, clamping
// them to sane values.
func GetPaginationParams(c echo.Context) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	pageSize, _ := strconv.Atoi(c.QueryParam("limit"))
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

// Bounds returns the [start, end) slice window for a list of the given
// length. A page past the end yields an empty window.
func (p PaginationParams) Bounds(length int) (int, int) {
	start := p.Offset
	if start > length {
		start = length
	}
	end := start + p.PageSize
	if end > length {
		end = length
	}
	return start, end
}
