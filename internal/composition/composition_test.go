package composition_test

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/supergraph/internal/composition"
	"github.com/hanpama/supergraph/internal/schema"
	"github.com/hanpama/supergraph/internal/subgraph"
)

func parseAll(t *testing.T, specs map[string]string) []subgraph.Subgraph[subgraph.Initial] {
	t.Helper()
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	var subgraphs []subgraph.Subgraph[subgraph.Initial]
	for _, name := range names {
		s, err := subgraph.Parse(name, "http://"+name+":4000", specs[name])
		require.NoError(t, err)
		subgraphs = append(subgraphs, s)
	}
	return subgraphs
}

func compose(t *testing.T, specs map[string]string) (*composition.Supergraph[composition.Satisfiable], composition.Errors) {
	t.Helper()
	return composition.Compose(context.Background(), parseAll(t, specs))
}

func requireErrorContaining(t *testing.T, errs composition.Errors, want string) {
	t.Helper()
	for _, err := range errs {
		if strings.Contains(err.Message, want) {
			return
		}
	}
	t.Fatalf("expected an error containing %q, got %v", want, errs)
}

func hasHint(hints []composition.Hint, code string) bool {
	for _, h := range hints {
		if h.Code == code {
			return true
		}
	}
	return false
}

const productsSDL = `
	type Query {
		product(sku: String!): Product
	}

	type Product @key(fields: "sku") {
		sku: String!
		name: String
		price: Int
	}
`

const reviewsSDL = `
	type Query {
		recentReviews: [Review]
	}

	type Review {
		id: ID!
		body: String
		product: Product
	}

	type Product @key(fields: "sku") {
		sku: String! @external
		reviews: [Review]
	}
`

func TestComposeEntityAcrossSubgraphs(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"products": productsSDL,
		"reviews":  reviewsSDL,
	})
	require.Empty(t, errs)
	require.NotNil(t, sg)

	product := sg.Schema.Types["Product"]
	require.NotNil(t, product)
	var fieldNames []string
	for _, f := range product.Fields {
		fieldNames = append(fieldNames, f.Name)
	}
	require.Equal(t, []string{"name", "price", "reviews", "sku"}, fieldNames)

	entity := sg.Schema.Types["_Entity"]
	require.NotNil(t, entity)
	require.Equal(t, []string{"Product"}, entity.PossibleTypes)

	sdl := schema.Render(sg.Schema)
	for _, forbidden := range []string{"@key", "@external", "@requires", "@provides", "federation"} {
		require.NotContains(t, sdl, forbidden)
	}
}

func TestComposeRoutingTable(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"products": productsSDL,
		"reviews":  reviewsSDL,
	})
	require.Empty(t, errs)

	require.Equal(t, map[string]string{
		"products": "http://products:4000",
		"reviews":  "http://reviews:4000",
	}, sg.Routing.Subgraphs)

	tr := sg.Routing.Types["Product"]
	require.NotNil(t, tr)
	require.True(t, tr.IsEntity())
	require.Equal(t, []string{"products", "reviews"}, tr.Subgraphs)
	require.Equal(t, []composition.KeyRouting{
		{Subgraph: "products", FieldSet: "sku"},
		{Subgraph: "reviews", FieldSet: "sku"},
	}, tr.Keys)

	want := &composition.FieldRouting{
		Name:         "sku",
		DeclaredIn:   []string{"products", "reviews"},
		ResolvableIn: []string{"products"},
		ExternalIn:   []string{"reviews"},
	}
	if diff := cmp.Diff(want, tr.Fields["sku"]); diff != "" {
		t.Errorf("sku routing mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeSharedFieldStripsMarkers(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"a": `
			type Query { product: Product }
			type Product @key(fields: "sku") {
				sku: String!
				name: String! @external
			}
		`,
		"b": `
			type Product @key(fields: "sku") {
				sku: String!
				name: String! @shareable
			}
		`,
	})
	require.Empty(t, errs)

	product := sg.Schema.Types["Product"]
	require.NotNil(t, product)
	require.Len(t, product.Fields, 2)
	require.NotNil(t, product.Field("sku"))
	require.NotNil(t, product.Field("name"))

	sdl := schema.Render(sg.Schema)
	for _, forbidden := range []string{"@key", "@external", "@shareable"} {
		require.NotContains(t, sdl, forbidden)
	}

	fr := sg.Routing.Types["Product"].Fields["name"]
	require.Equal(t, []string{"b"}, fr.ResolvableIn)
	require.Equal(t, []string{"a"}, fr.ExternalIn)
}

func TestComposeDeterministic(t *testing.T) {
	specs := map[string]string{
		"products": productsSDL,
		"reviews":  reviewsSDL,
	}
	first, errs := compose(t, specs)
	require.Empty(t, errs)
	second, errs := compose(t, specs)
	require.Empty(t, errs)
	require.Equal(t, schema.Render(first.Schema), schema.Render(second.Schema))
}

func TestComposeOrderIndependent(t *testing.T) {
	specs := map[string]string{
		"products": productsSDL,
		"reviews":  reviewsSDL,
	}
	forward := parseAll(t, specs)
	reversed := []subgraph.Subgraph[subgraph.Initial]{forward[1], forward[0]}

	a, errs := composition.Compose(context.Background(), forward)
	require.Empty(t, errs)
	b, errs := composition.Compose(context.Background(), reversed)
	require.Empty(t, errs)
	require.Equal(t, schema.Render(a.Schema), schema.Render(b.Schema))
}

func TestComposeEmptyInput(t *testing.T) {
	_, errs := composition.Compose(context.Background(), nil)
	requireErrorContaining(t, errs, "Cannot compose with empty subgraphs list")
}

func TestComposeDuplicateSubgraphNames(t *testing.T) {
	a, err := subgraph.Parse("products", "", productsSDL)
	require.NoError(t, err)
	b, err := subgraph.Parse("products", "", reviewsSDL)
	require.NoError(t, err)

	_, errs := composition.Compose(context.Background(), []subgraph.Subgraph[subgraph.Initial]{a, b})
	requireErrorContaining(t, errs, "Duplicate subgraph name: products")
}

func TestComposeMissingQueryType(t *testing.T) {
	_, errs := compose(t, map[string]string{
		"orphan": `type Product @key(fields: "sku") { sku: String! }`,
	})
	requireErrorContaining(t, errs, "Supergraph must have a query type")
}

func TestComposeSubgraphValidationFailsSlow(t *testing.T) {
	// Both subgraphs are invalid; both must be reported in one pass.
	_, errs := compose(t, map[string]string{
		"a": `type Query { x: String } type T @key(fields: "nope") { id: ID! }`,
		"b": `type Query { y: String } type U @key(fields: "gone") { id: ID! }`,
	})
	require.Len(t, errs, 2)
	requireErrorContaining(t, errs, `"nope"`)
	requireErrorContaining(t, errs, `"gone"`)
	for _, err := range errs {
		require.Equal(t, composition.ErrorKindSubgraph, err.Kind)
	}
}

func TestComposeEnumValueUnion(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"a": `type Query { color: Color } enum Color { RED GREEN }`,
		"b": `enum Color { BLUE }`,
	})
	require.Empty(t, errs)

	var values []string
	for _, v := range sg.Schema.Types["Color"].EnumValues {
		values = append(values, v.Name)
	}
	require.Equal(t, []string{"BLUE", "GREEN", "RED"}, values)
}

func TestComposeUnionMemberUnion(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"a": `
			type Query { search: SearchResult }
			union SearchResult = Product
			type Product { sku: String }
		`,
		"b": `
			union SearchResult = Review
			type Review { id: ID! }
		`,
	})
	require.Empty(t, errs)
	require.Equal(t, []string{"Product", "Review"}, sg.Schema.Types["SearchResult"].PossibleTypes)
}

func TestComposeNullabilityWidens(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"a": `type Query { money: Money } type Money { amount: Int! }`,
		"b": `type Query { balance: Money } type Money { amount: Int }`,
	})
	require.Empty(t, errs)

	amount := sg.Schema.Types["Money"].Field("amount")
	require.NotNil(t, amount)
	require.False(t, amount.Type.IsNonNull())
	require.True(t, hasHint(sg.Hints, composition.HintInconsistentNonNull))
}

func TestComposeDescriptionFirstInCanonicalOrder(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"b": `"From B" type Money { amount: Int } type Query { m: Money }`,
		"a": `"From A" type Money { amount: Int }`,
	})
	require.Empty(t, errs)
	require.Equal(t, "From A", sg.Schema.Types["Money"].Description)
	require.True(t, hasHint(sg.Hints, composition.HintInconsistentDescription))
}

func TestComposeTypeKindConflict(t *testing.T) {
	_, errs := compose(t, map[string]string{
		"a": `type Query { x: Thing } type Thing { id: ID }`,
		"b": `enum Thing { ONE }`,
	})
	requireErrorContaining(t, errs, `Type "Thing" is a object in subgraph "a" but a enum in subgraph "b"`)
}

func TestComposeFieldTypeConflict(t *testing.T) {
	_, errs := compose(t, map[string]string{
		"a": `type Query { m: Money } type Money { amount: Int }`,
		"b": `type Money { amount: String }`,
	})
	requireErrorContaining(t, errs, "Field Money.amount has incompatible types")
}

func TestComposeRootTypeConflict(t *testing.T) {
	_, errs := compose(t, map[string]string{
		"a": `schema { query: RootQuery } type RootQuery { a: String }`,
		"b": `type Query { b: String }`,
	})
	requireErrorContaining(t, errs, "disagree on the query root type name")
}

func TestComposeOverrideMovesResolution(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"old": `
			type Query { p: Product }
			type Product @key(fields: "id") { id: ID! name: String }
		`,
		"new": `
			type Product @key(fields: "id") {
				id: ID!
				name: String @override(from: "old")
			}
		`,
	})
	require.Empty(t, errs)

	fr := sg.Routing.Types["Product"].Fields["name"]
	require.Equal(t, []string{"new"}, fr.ResolvableIn)
	require.Equal(t, "old", fr.OverriddenFrom)
}

func TestComposeInaccessibleRecorded(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"a": `
			type Query { p: Product }
			type Product @key(fields: "id") {
				id: ID!
				internalNote: String @inaccessible
			}
		`,
	})
	require.Empty(t, errs)
	require.True(t, sg.Routing.Types["Product"].Fields["internalNote"].Inaccessible)
}

func TestSatisfiabilityUnreachableKey(t *testing.T) {
	// The reviews subgraph keys Product on upc, which the products subgraph
	// never declares: no entity jump exists and reviews-only fields have no
	// resolution path.
	_, errs := compose(t, map[string]string{
		"products": `
			type Query { product: Product }
			type Product @key(fields: "sku") { sku: String! }
		`,
		"reviews": `
			type Product @key(fields: "upc") {
				upc: String!
				reviews: [String]
			}
		`,
	})
	requireErrorContaining(t, errs, "Cannot satisfy field Product.reviews")
	for _, err := range errs {
		require.Equal(t, composition.ErrorKindSatisfiability, err.Kind)
	}
}

func TestSatisfiabilityRequiresCycle(t *testing.T) {
	_, errs := compose(t, map[string]string{
		"a": `
			type Query { e: E }
			type E @key(fields: "id") {
				id: ID!
				left: String @requires(fields: "right")
				right: String @requires(fields: "left")
			}
		`,
	})
	requireErrorContaining(t, errs, `Cyclic @requires dependency on type "E"`)
}

func TestSkipSatisfiability(t *testing.T) {
	// Same shape as the unreachable-key case; with verification disabled the
	// merged supergraph is accepted on trust.
	subgraphs := parseAll(t, map[string]string{
		"products": `
			type Query { product: Product }
			type Product @key(fields: "sku") { sku: String! }
		`,
		"reviews": `
			type Product @key(fields: "upc") {
				upc: String!
				reviews: [String]
			}
		`,
	})

	sg, errs := composition.ComposeWithOptions(context.Background(), subgraphs,
		composition.Options{RunSatisfiability: false})
	require.Empty(t, errs)
	require.NotNil(t, sg)
}

func TestComposeUserDirectiveCarried(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"a": `
			directive @auth(role: String!) on FIELD_DEFINITION
			type Query { x: String @auth(role: "admin") }
		`,
	})
	require.Empty(t, errs)
	require.NotNil(t, sg.Schema.Directives["auth"])
	require.Nil(t, sg.Schema.Directives["key"])
}

func TestComposeLinkedSubgraph(t *testing.T) {
	sg, errs := compose(t, map[string]string{
		"products": `
			extend schema @link(
				url: "https://specs.apollo.dev/federation/v2.3",
				import: ["@key", {name: "@external", as: "@borrowed"}]
			)
			type Query { product: Product }
			type Product @key(fields: "sku") { sku: String! }
		`,
		"reviews": `
			extend schema @link(url: "https://specs.apollo.dev/federation/v2.3", import: ["@key", "@external"])
			type Product @key(fields: "sku") {
				sku: String! @external
				reviews: [String]
			}
		`,
	})
	require.Empty(t, errs)
	require.Equal(t, []string{"reviews"},
		sg.Routing.Types["Product"].Fields["sku"].ExternalIn)
}
