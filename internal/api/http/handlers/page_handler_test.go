package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageHandler_Placeholder(t *testing.T) {
	app := fiber.New()
	app.Use(NewPageHandler("", nil).Serve)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tentang", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"page":"/tentang"}`, string(body))
}

func TestPageHandler_ForwardsToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/katalog", r.URL.Path)
		assert.Equal(t, "q=fisika", r.URL.RawQuery)
		w.Header().Set("X-Upstream", "front")
		_, _ = io.WriteString(w, "<html>katalog</html>")
	}))
	t.Cleanup(upstream.Close)

	app := fiber.New()
	app.Use(NewPageHandler(upstream.URL+"/", nil).Serve)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/katalog?q=fisika", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "front", resp.Header.Get("X-Upstream"))
	assert.Equal(t, "<html>katalog</html>", string(body))
}

func TestPageHandler_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	upstream.Close()

	app := fiber.New()
	app.Use(NewPageHandler(upstream.URL, nil).Serve)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/katalog", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
