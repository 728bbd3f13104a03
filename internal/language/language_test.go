package language_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/supergraph/internal/language"
)

func TestParseSchema(t *testing.T) {
	doc, err := language.ParseSchema("products", `
		type Query { product: Product }
		type Product @key(fields: "sku") { sku: String! }
		extend type Product { name: String }
	`)
	require.NoError(t, err)
	require.NotNil(t, doc.Definitions.ForName("Product"))
	require.Len(t, doc.Extensions, 1)
}

func TestParseSchemaError(t *testing.T) {
	_, err := language.ParseSchema("broken", "type Query {")
	require.Error(t, err)
}

func TestParseFieldSet(t *testing.T) {
	sels, err := language.ParseFieldSet("sku variation { id }")
	require.NoError(t, err)
	require.Len(t, sels, 2)

	first, ok := sels[0].(*language.Field)
	require.True(t, ok)
	require.Equal(t, "sku", first.Name)

	second, ok := sels[1].(*language.Field)
	require.True(t, ok)
	require.Equal(t, "variation", second.Name)
	require.Len(t, second.SelectionSet, 1)
}

func TestParseFieldSetError(t *testing.T) {
	_, err := language.ParseFieldSet("sku {")
	require.Error(t, err)
}
