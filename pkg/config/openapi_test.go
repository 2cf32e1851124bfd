package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/sunsetd/pkg/deprecation"
)

const petstore = `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
paths:
  /v1/pets:
    get:
      operationId: listPetsV1
      summary: List pets (use v2)
      deprecated: true
      x-sunset: "2025-06-01T00:00:00Z"
      x-replacement: /v2/pets
      responses:
        "200":
          description: ok
    post:
      operationId: createPet
      responses:
        "201":
          description: created
  /v1/pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema:
          type: string
    delete:
      deprecated: true
      externalDocs:
        url: https://docs.example.com/pets
      responses:
        "204":
          description: deleted
`

func TestImportOpenAPI(t *testing.T) {
	t.Parallel()

	f, err := ImportOpenAPI([]byte(petstore), ImportOptions{
		SunsetAt:         "2026-01-01",
		DocumentationURL: "https://docs.example.com",
		Validate:         true,
	})
	require.NoError(t, err)
	require.Len(t, f.Endpoints, 2)

	list := f.Endpoints[0]
	assert.Equal(t, "listpetsv1", list.ID)
	assert.Equal(t, "/v1/pets", list.Path)
	assert.Equal(t, []string{"GET"}, list.Methods)
	assert.Equal(t, "2025-06-01T00:00:00Z", list.SunsetAt)
	assert.Empty(t, list.Message, "summaries are not deprecation notices")
	assert.Equal(t, "https://docs.example.com", list.DocumentationURL)
	require.NotNil(t, list.Replacement)
	assert.Equal(t, "/v2/pets", list.Replacement.Path)
	assert.Nil(t, list.Action)

	del := f.Endpoints[1]
	assert.Equal(t, "delete-v1-pets-petid", del.ID)
	assert.Equal(t, "/v1/pets/?*", del.Path)
	assert.Equal(t, "2026-01-01", del.SunsetAt)
	assert.Equal(t, "https://docs.example.com/pets", del.DocumentationURL)

	// The generated configuration is valid and usable.
	assert.True(t, Validate(f).IsValid())
	reg, err := f.Registry()
	require.NoError(t, err)
	assert.NotNil(t, reg.Resolve("DELETE", "/v1/pets/42"))
	assert.Nil(t, reg.Resolve("DELETE", "/v1/pets/42/toys"))
	assert.Nil(t, reg.Resolve("POST", "/v1/pets"))

	d := reg.Evaluate(deprecation.Request{Method: "GET", Path: "/v1/pets", Now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)})
	notice, ok := d.Headers.Get(deprecation.DefaultNoticeHeader)
	require.True(t, ok)
	assert.Equal(t, "This endpoint (/v1/pets) is deprecated and will be removed on 2025-06-01. Please migrate to /v2/pets.", notice)
}

func TestImportOpenAPI_Action(t *testing.T) {
	t.Parallel()

	f, err := ImportOpenAPI([]byte(petstore), ImportOptions{Action: "block"})
	require.NoError(t, err)
	for _, ep := range f.Endpoints {
		require.NotNil(t, ep.Action)
		assert.Equal(t, "block", ep.Action.Type)
	}
}

func TestImportOpenAPI_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ImportOpenAPI([]byte("openapi: [broken"), ImportOptions{})
	assert.Error(t, err)
}

func TestSlugAndUniqueID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "get-api-v1-users-id", slug("GET /api/v1/users/{id}"))
	assert.Equal(t, "listusers", slug("listUsers"))

	used := map[string]bool{}
	assert.Equal(t, "a", uniqueID("a", used))
	assert.Equal(t, "a-2", uniqueID("a", used))
	assert.Equal(t, "a-3", uniqueID("a", used))
}
