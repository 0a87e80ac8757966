package pagination

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// getParamsFor runs GetParams against a real request query string
func getParamsFor(t *testing.T, query string) *Params {
	t.Helper()

	var params *Params
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		params = GetParams(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/?"+query, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	return params
}

func TestGetParams(t *testing.T) {
	cases := []struct {
		query string
		page  int
		limit int
	}{
		{"", 1, 10},
		{"page=3&limit=25", 3, 25},
		{"page=0&limit=0", 1, 10},
		{"page=-2&limit=-5", 1, 10},
		{"page=2&limit=500", 2, 100},
		{"page=abc&limit=xyz", 1, 10},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("query=%q", tc.query), func(t *testing.T) {
			params := getParamsFor(t, tc.query)
			require.Equal(t, tc.page, params.Page)
			require.Equal(t, tc.limit, params.Limit)
		})
	}
}
