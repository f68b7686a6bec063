package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func paramsFor(query string) PaginationParams {
	e := echo.New()
	req := httptest.NewRequest("GET", "/v1/support/rooms?"+query, nil)
	return GetPaginationParams(e.NewContext(req, httptest.NewRecorder()))
}

func TestGetPaginationParamsDefaults(t *testing.T) {
	params := paramsFor("")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.PageSize)
	assert.Equal(t, 0, params.Offset)
}

func TestGetPaginationParamsClampsLimit(t *testing.T) {
	params := paramsFor("page=3&limit=500")
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 20, params.PageSize)
	assert.Equal(t, 40, params.Offset)
}

func TestBoundsPastEndIsEmpty(t *testing.T) {
	params := paramsFor("page=5&limit=10")
	start, end := params.Bounds(12)
	assert.Equal(t, 12, start)
	assert.Equal(t, 12, end)
}

func TestBoundsPartialLastPage(t *testing.T) {
	params := paramsFor("page=2&limit=10")
	start, end := params.Bounds(15)
	assert.Equal(t, 10, start)
	assert.Equal(t, 15, end)
}
