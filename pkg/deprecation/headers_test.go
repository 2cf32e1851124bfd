package deprecation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHeaders(t *testing.T) {
	t.Parallel()

	now := date("2024-01-01T00:00:00Z")

	t.Run("full rule", func(t *testing.T) {
		t.Parallel()
		rule := Rule{
			Path:             "/api/v1/users",
			DeprecatedAt:     date("2023-01-01T00:00:00Z"),
			SunsetAt:         date("2025-06-01T00:00:00Z"),
			DocumentationURL: "https://docs.example.com/v1",
			Replacement:      &Replacement{Path: "/api/v2/users"},
		}

		got := BuildHeaders(&rule, Deprecated, DefaultSettings(), now)

		assert.Equal(t, Headers{
			{Name: "Deprecation", Value: "@1672531200"},
			{Name: "Sunset", Value: "Sun, 01 Jun 2025 00:00:00 GMT"},
			{Name: "Link", Value: `<https://docs.example.com/v1>; rel="deprecation", </api/v2/users>; rel="successor-version"`},
			{Name: "X-Deprecation-Notice", Value: "This endpoint (/api/v1/users) is deprecated and will be removed on 2025-06-01. Please migrate to /api/v2/users."},
		}, got)
	})

	t.Run("deprecation falls back to now", func(t *testing.T) {
		t.Parallel()
		got := BuildHeaders(&Rule{Path: "/old"}, Deprecated, DefaultSettings(), now)

		v, ok := got.Get("deprecation")
		require.True(t, ok)
		assert.Equal(t, "@1704067200", v)

		_, ok = got.Get("Sunset")
		assert.False(t, ok)
		_, ok = got.Get("Link")
		assert.False(t, ok)

		notice, _ := got.Get("X-Deprecation-Notice")
		assert.Equal(t, "This endpoint (/old) is deprecated.", notice)
	})

	t.Run("message overrides notice", func(t *testing.T) {
		t.Parallel()
		rule := Rule{Path: "/old", Message: "Use the new thing", SunsetAt: date("2025-06-01T00:00:00Z")}
		got := BuildHeaders(&rule, Deprecated, DefaultSettings(), now)
		notice, _ := got.Get("X-Deprecation-Notice")
		assert.Equal(t, "Use the new thing", notice)
	})

	t.Run("replacement without sunset", func(t *testing.T) {
		t.Parallel()
		rule := Rule{Path: "/old", Replacement: &Replacement{Path: "/new"}}
		got := BuildHeaders(&rule, Deprecated, DefaultSettings(), now)

		link, _ := got.Get("Link")
		assert.Equal(t, `</new>; rel="successor-version"`, link)
		notice, _ := got.Get("X-Deprecation-Notice")
		assert.Equal(t, "This endpoint (/old) is deprecated. Please migrate to /new.", notice)
	})

	t.Run("custom header names", func(t *testing.T) {
		t.Parallel()
		settings := Settings{
			DeprecationHeader: "X-Deprecated",
			SunsetHeader:      "X-Sunset",
			LinkHeader:        "X-Link",
			NoticeHeader:      "X-Notice",
		}
		rule := Rule{Path: "/old", SunsetAt: date("2025-06-01T00:00:00Z"), Replacement: &Replacement{Path: "/new"}}
		got := BuildHeaders(&rule, PastSunset, settings, now)

		names := make([]string, 0, len(got))
		for _, h := range got {
			names = append(names, h.Name)
		}
		assert.Equal(t, []string{"X-Deprecated", "X-Sunset", "X-Link", "X-Notice"}, names)
	})

	t.Run("extra headers sorted after standard ones", func(t *testing.T) {
		t.Parallel()
		rule := Rule{Path: "/old", Headers: map[string]string{"X-Team": "billing", "X-API-Warn": "1"}}
		got := BuildHeaders(&rule, Deprecated, DefaultSettings(), now)

		require.Len(t, got, 4)
		assert.Equal(t, Header{Name: "X-API-Warn", Value: "1"}, got[2])
		assert.Equal(t, Header{Name: "X-Team", Value: "billing"}, got[3])
	})

	t.Run("inactive has no headers", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, BuildHeaders(&Rule{Path: "/old"}, Inactive, DefaultSettings(), now))
	})
}

func TestBuildHeaders_Deterministic(t *testing.T) {
	t.Parallel()

	rule := Rule{
		Path:             "/api/v1/*",
		SunsetAt:         date("2025-06-01T00:00:00Z"),
		DocumentationURL: "https://docs.example.com",
		Replacement:      &Replacement{Path: "/api/v2"},
		Headers:          map[string]string{"B": "2", "A": "1", "C": "3"},
	}
	now := date("2024-01-01T00:00:00Z")

	first := BuildHeaders(&rule, Deprecated, DefaultSettings(), now)
	for range 50 {
		assert.Equal(t, first, BuildHeaders(&rule, Deprecated, DefaultSettings(), now))
	}
}

func TestParseHTTPDate(t *testing.T) {
	t.Parallel()

	want := date("2025-06-01T00:00:00Z")

	got, err := ParseHTTPDate("Sun, 01 Jun 2025 00:00:00 GMT")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = ParseHTTPDate("2025-06-01T02:00:00+02:00")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = ParseHTTPDate("next tuesday")
	assert.Error(t, err)

	assert.Equal(t, "Sun, 01 Jun 2025 00:00:00 GMT", FormatHTTPDate(want))
}

func TestBuildRedirectTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rep   Replacement
		query string
		want  string
	}{
		{name: "preserve query", rep: Replacement{Path: "/api/v2/users", PreserveQuery: true}, query: "active=true", want: "/api/v2/users?active=true"},
		{name: "drop query", rep: Replacement{Path: "/api/v2/users"}, query: "active=true", want: "/api/v2/users"},
		{name: "empty query", rep: Replacement{Path: "/api/v2/users", PreserveQuery: true}, query: "", want: "/api/v2/users"},
		{name: "no re-encoding", rep: Replacement{Path: "/v2", PreserveQuery: true}, query: "q=a%20b&x=%2F", want: "/v2?q=a%20b&x=%2F"},
		{name: "no merging", rep: Replacement{Path: "/v2?version=2", PreserveQuery: true}, query: "a=1", want: "/v2?version=2?a=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildRedirectTarget(tt.rep, tt.query))
		})
	}
}

func TestGoneBody(t *testing.T) {
	t.Parallel()

	body := GoneBody(&Rule{
		Path:             "/api/v1/users",
		SunsetAt:         date("2025-06-01T00:00:00Z"),
		DocumentationURL: "https://docs.example.com",
		Replacement:      &Replacement{Path: "/api/v2/users"},
	})

	assert.JSONEq(t, `{
		"error": "endpoint_removed",
		"message": "The endpoint /api/v1/users has been removed. Please use /api/v2/users instead",
		"endpoint": "/api/v1/users",
		"sunset": "2025-06-01T00:00:00Z",
		"replacement": "/api/v2/users",
		"documentation": "https://docs.example.com"
	}`, body)

	assert.JSONEq(t, `{
		"error": "endpoint_removed",
		"message": "The endpoint /gone has been removed",
		"endpoint": "/gone"
	}`, GoneBody(&Rule{Path: "/gone"}))
}
