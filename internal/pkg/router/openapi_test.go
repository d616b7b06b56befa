package router

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The served API document must stay loadable and internally consistent,
// otherwise /swagger renders a broken page.
func TestOpenAPIDocumentIsValid(t *testing.T) {
	t.Parallel()

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(filepath.Join("..", "..", "..", "public", "docs", "v1", "openapi.yml"))
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	for _, path := range []string{
		"/api/v1/leads/intake",
		"/l/{hash}",
		"/api/v1/admin/landing-pages",
		"/api/v1/admin/landing-pages/{id}/rotate-secret",
		"/api/v1/admin/landing-pages/{id}/rotate-hash",
		"/api/v1/admin/landing-pages/{id}/allowlist",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "path %s missing from document", path)
	}

	submission := doc.Components.Schemas["LeadSubmission"]
	require.NotNil(t, submission)
	assert.ElementsMatch(t, []string{"nome", "telefone"}, submission.Value.Required)
}
