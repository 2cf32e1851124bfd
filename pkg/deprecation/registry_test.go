package deprecation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/sunsetd/internal/matching"
)

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rules     []Rule
		wantErr   error
		wantField string
		wantIndex int
	}{
		{
			name:      "empty id",
			rules:     []Rule{{Path: "/a"}},
			wantErr:   ErrEmptyID,
			wantField: "id",
		},
		{
			name:      "duplicate id",
			rules:     []Rule{{ID: "a", Path: "/a"}, {ID: "a", Path: "/b"}},
			wantErr:   ErrDuplicateID,
			wantField: "id",
			wantIndex: 1,
		},
		{
			name:      "relative pattern",
			rules:     []Rule{{ID: "a", Path: "api/v1"}},
			wantErr:   ErrInvalidPattern,
			wantField: "path",
		},
		{
			name:      "malformed glob",
			rules:     []Rule{{ID: "a", Path: "/api/[v1"}},
			wantErr:   ErrInvalidPattern,
			wantField: "path",
		},
		{
			name: "sunset before deprecation",
			rules: []Rule{{
				ID: "a", Path: "/a",
				DeprecatedAt: date("2025-01-01T00:00:00Z"),
				SunsetAt:     date("2024-01-01T00:00:00Z"),
			}},
			wantErr:   ErrSunsetBeforeDeprecation,
			wantField: "sunset_at",
		},
		{
			name:      "redirect without replacement",
			rules:     []Rule{{ID: "a", Path: "/a", Action: Redirect{Code: 308}}},
			wantErr:   ErrMissingReplacement,
			wantField: "replacement",
		},
		{
			name:      "empty replacement path",
			rules:     []Rule{{ID: "a", Path: "/a", Replacement: &Replacement{}}},
			wantErr:   ErrEmptyReplacementPath,
			wantField: "replacement.path",
		},
		{
			name:      "redirect with 200",
			rules:     []Rule{{ID: "a", Path: "/a", Action: Redirect{Code: 200}, Replacement: &Replacement{Path: "/b"}}},
			wantErr:   ErrInvalidStatusCode,
			wantField: "action.status_code",
		},
		{
			name:      "pass through is not configurable",
			rules:     []Rule{{ID: "a", Path: "/a", Action: PassThrough{}}},
			wantErr:   ErrUnknownAction,
			wantField: "action.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reg, err := Build(tt.rules, DefaultSettings())
			require.Error(t, err)
			assert.Nil(t, reg)
			assert.ErrorIs(t, err, tt.wantErr)

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantField, ce.Field)
			assert.Equal(t, tt.wantIndex, ce.Index)
		})
	}
}

func TestBuild_PatternErrorKeepsCause(t *testing.T) {
	t.Parallel()

	_, err := Build([]Rule{{ID: "a", Path: ""}}, DefaultSettings())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.ErrorIs(t, err, matching.ErrEmptyPattern)
	assert.Contains(t, err.Error(), "endpoint a: path:")
}

func TestBuild_SunsetEqualsDeprecation(t *testing.T) {
	t.Parallel()

	at := date("2025-01-01T00:00:00Z")
	_, err := Build([]Rule{{ID: "a", Path: "/a", DeprecatedAt: at, SunsetAt: at}}, DefaultSettings())
	assert.NoError(t, err)
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	reg := MustBuild([]Rule{
		{ID: "users-get", Path: "/api/v1/users", Methods: []string{"GET"}},
		{ID: "v1-all", Path: "/api/v1/*"},
		{ID: "orders", Path: "/orders/*/items", Methods: []string{"post", "Put"}},
	}, DefaultSettings())

	tests := []struct {
		name   string
		method string
		path   string
		want   string
	}{
		{name: "exact with method", method: "GET", path: "/api/v1/users", want: "users-get"},
		{name: "method mismatch falls through", method: "DELETE", path: "/api/v1/users", want: "v1-all"},
		{name: "nested wildcard", method: "GET", path: "/api/v1/users/123", want: "v1-all"},
		{name: "other version", method: "GET", path: "/api/v2/users", want: ""},
		{name: "segment wildcard", method: "POST", path: "/orders/42/items", want: "orders"},
		{name: "method case-insensitive", method: "put", path: "/orders/42/items", want: "orders"},
		{name: "segment wildcard does not cross slash", method: "POST", path: "/orders/4/2/items", want: ""},
		{name: "method not listed", method: "GET", path: "/orders/42/items", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ep := reg.Resolve(tt.method, tt.path)
			if tt.want == "" {
				assert.Nil(t, ep)
				return
			}
			require.NotNil(t, ep)
			assert.Equal(t, tt.want, ep.ID())
		})
	}
}

func TestRegistry_FirstDeclaredWins(t *testing.T) {
	t.Parallel()

	specific := Rule{ID: "specific", Path: "/api/v1/users"}
	broad := Rule{ID: "broad", Path: "/api/v1/*"}

	reg := MustBuild([]Rule{specific, broad}, DefaultSettings())
	assert.Equal(t, "specific", reg.Resolve("GET", "/api/v1/users").ID())

	reg = MustBuild([]Rule{broad, specific}, DefaultSettings())
	assert.Equal(t, "broad", reg.Resolve("GET", "/api/v1/users").ID())
}

func TestRegistry_Accessors(t *testing.T) {
	t.Parallel()

	rules := []Rule{
		{ID: "a", Path: "/a", Headers: map[string]string{"X": "1"}},
		{ID: "b", Path: "/b"},
	}
	reg := MustBuild(rules, Settings{IncludeHeaders: true})

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, DefaultSettings().NoticeHeader, reg.Settings().NoticeHeader)

	ep, ok := reg.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "/b", ep.Rule().Path)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)

	ids := []string{}
	for _, ep := range reg.Endpoints() {
		ids = append(ids, ep.ID())
	}
	assert.Equal(t, []string{"a", "b"}, ids)

	// The registry owns copies of the rules.
	rules[0].Headers["X"] = "changed"
	a, _ := reg.Lookup("a")
	assert.Equal(t, "1", a.Rule().Headers["X"])

	copied := a.Rule()
	copied.Headers["X"] = "also changed"
	assert.Equal(t, "1", a.Rule().Headers["X"])
}

func TestMustBuild_Panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		MustBuild([]Rule{{ID: "a", Path: "/a"}, {ID: "a", Path: "/a"}}, DefaultSettings())
	})
}
