package prompts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	t.Run("instructions reference every context value", func(t *testing.T) {
		p, err := Build(Context{
			Datetime: "Monday, 02 January 2006, 03:04 PM",
			City:     "Delhi",
			Weather:  "Delhi: ☀️ +31°C",
		}, "Gaurav Sachdeva")
		require.NoError(t, err)

		assert.Contains(t, p.Instructions, "Monday, 02 January 2006, 03:04 PM")
		assert.Contains(t, p.Instructions, "Delhi")
		assert.Contains(t, p.Instructions, "+31°C")
		assert.Contains(t, p.Instructions, "Jarvis")
	})

	t.Run("reply addresses the user by name", func(t *testing.T) {
		p, err := Build(Context{Datetime: "x", City: "y", Weather: "z"}, "Gaurav Sachdeva")
		require.NoError(t, err)

		assert.Contains(t, p.Reply, "Gaurav Sachdeva")
		assert.Contains(t, p.Reply, "Good morning!")
	})

	t.Run("fallback values render verbatim", func(t *testing.T) {
		p, err := Build(Context{Datetime: Unknown, City: Unknown, Weather: Unknown}, "Gaurav Sachdeva")
		require.NoError(t, err)

		assert.Contains(t, p.Instructions, Unknown)
	})
}

func TestFetcher_Fetch(t *testing.T) {
	t.Run("resolves city and weather", func(t *testing.T) {
		cityServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"city": "Delhi", "country": "IN"}`))
		}))
		defer cityServer.Close()

		weatherServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Delhi", r.URL.Path)
			w.Write([]byte("Delhi: ☀️ +31°C\n"))
		}))
		defer weatherServer.Close()

		fetcher := NewFetcher(nil)
		fetcher.cityURL = cityServer.URL
		fetcher.weatherURL = weatherServer.URL

		values := fetcher.Fetch(context.Background())

		assert.Equal(t, "Delhi", values.City)
		assert.Equal(t, "Delhi: ☀️ +31°C", values.Weather)
		assert.NotEqual(t, Unknown, values.Datetime)
	})

	t.Run("degrades to Unknown on failure", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer failing.Close()

		fetcher := NewFetcher(nil)
		fetcher.cityURL = failing.URL
		fetcher.weatherURL = failing.URL

		values := fetcher.Fetch(context.Background())

		assert.Equal(t, Unknown, values.City)
		assert.Equal(t, Unknown, values.Weather)
		assert.NotEqual(t, Unknown, values.Datetime)
	})

	t.Run("weather skipped when city unknown", func(t *testing.T) {
		var weatherCalled bool
		weatherServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			weatherCalled = true
		}))
		defer weatherServer.Close()

		fetcher := NewFetcher(nil)
		fetcher.cityURL = "http://127.0.0.1:1" // unreachable
		fetcher.weatherURL = weatherServer.URL

		values := fetcher.Fetch(context.Background())

		assert.Equal(t, Unknown, values.City)
		assert.Equal(t, Unknown, values.Weather)
		assert.False(t, weatherCalled)
	})
}
