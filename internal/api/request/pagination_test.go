package request

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/subscriptions", nil)

	p := ParsePagination(r)

	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, "", p.Cursor)
}

func TestParsePagination_ExplicitValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/subscriptions?limit=25&cursor=abc", nil)

	p := ParsePagination(r)

	assert.Equal(t, 25, p.Limit)
	assert.Equal(t, "abc", p.Cursor)
}

func TestParsePagination_CapsAtMax(t *testing.T) {
	r := httptest.NewRequest("GET", "/subscriptions?limit=9999", nil)

	p := ParsePagination(r)

	assert.Equal(t, MaxLimit, p.Limit)
}

func TestParsePagination_IgnoresInvalidLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/subscriptions?limit=abc", nil)

	p := ParsePagination(r)

	assert.Equal(t, DefaultLimit, p.Limit)
}

func TestParsePagination_IgnoresNegativeLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/subscriptions?limit=-5", nil)

	p := ParsePagination(r)

	assert.Equal(t, DefaultLimit, p.Limit)
}
