package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, fn func() error) (stdout, stderr string, err error) {
	t.Helper()
	oldOut, oldErr := os.Stdout, os.Stderr
	defer func() {
		os.Stdout, os.Stderr = oldOut, oldErr
	}()

	outR, outW, _ := os.Pipe()
	errR, errW, _ := os.Pipe()
	os.Stdout, os.Stderr = outW, errW

	doneOut := make(chan struct{})
	var bufOut bytes.Buffer
	go func() { io.Copy(&bufOut, outR); close(doneOut) }()

	doneErr := make(chan struct{})
	var bufErr bytes.Buffer
	go func() { io.Copy(&bufErr, errR); close(doneErr) }()

	err = fn()
	outW.Close()
	errW.Close()
	<-doneOut
	<-doneErr
	stdout, stderr = bufOut.String(), bufErr.String()
	return
}

func writeSchemas(t *testing.T) (products, reviews string) {
	t.Helper()
	dir := t.TempDir()
	products = filepath.Join(dir, "products.graphql")
	reviews = filepath.Join(dir, "reviews.graphql")
	require.NoError(t, os.WriteFile(products, []byte(`
		type Query { product(sku: String!): Product }
		type Product @key(fields: "sku") {
			sku: String!
			name: String
		}
	`), 0644))
	require.NoError(t, os.WriteFile(reviews, []byte(`
		type Product @key(fields: "sku") {
			sku: String! @external
			reviews: [String]
		}
	`), 0644))
	return products, reviews
}

func TestHelp(t *testing.T) {
	out, _, err := captureOutput(t, func() error {
		return run([]string{"help", "compose"})
	})
	require.NoError(t, err)
	require.Contains(t, out, "compose FLAGS")
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := captureOutput(t, func() error {
		return run([]string{"frobnicate"})
	})
	require.Error(t, err)
}

func TestCompose(t *testing.T) {
	products, reviews := writeSchemas(t)
	out, _, err := captureOutput(t, func() error {
		return run([]string{"compose",
			"-subgraph", "products=http://products:4001=" + products,
			"-subgraph", "reviews=http://reviews:4001=" + reviews,
		})
	})
	require.NoError(t, err)
	require.Contains(t, out, "type Product")
	require.Contains(t, out, "reviews: [String]")
	require.NotContains(t, out, "@key")
}

func TestComposeOutFiles(t *testing.T) {
	products, reviews := writeSchemas(t)
	dir := t.TempDir()
	sdlPath := filepath.Join(dir, "supergraph.graphql")
	routingPath := filepath.Join(dir, "routing.json")

	_, _, err := captureOutput(t, func() error {
		return run([]string{"compose",
			"-subgraph", "products=http://products:4001=" + products,
			"-subgraph", "reviews=http://reviews:4001=" + reviews,
			"-out", sdlPath,
			"-routing-out", routingPath,
		})
	})
	require.NoError(t, err)

	sdl, err := os.ReadFile(sdlPath)
	require.NoError(t, err)
	require.Contains(t, string(sdl), "type Product")

	routing, err := os.ReadFile(routingPath)
	require.NoError(t, err)
	require.Contains(t, string(routing), `"http://products:4001"`)
}

func TestComposeRequiresSubgraph(t *testing.T) {
	_, _, err := captureOutput(t, func() error {
		return run([]string{"compose"})
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one -subgraph is required")
}

func TestComposeUnsatisfiable(t *testing.T) {
	dir := t.TempDir()
	products := filepath.Join(dir, "products.graphql")
	reviews := filepath.Join(dir, "reviews.graphql")
	require.NoError(t, os.WriteFile(products, []byte(`
		type Query { product: Product }
		type Product @key(fields: "sku") { sku: String! }
	`), 0644))
	require.NoError(t, os.WriteFile(reviews, []byte(`
		type Product @key(fields: "upc") {
			upc: String!
			reviews: [String]
		}
	`), 0644))

	_, _, err := captureOutput(t, func() error {
		return run([]string{"compose",
			"-subgraph", "products=http://products:4001=" + products,
			"-subgraph", "reviews=http://reviews:4001=" + reviews,
		})
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Cannot satisfy field Product.reviews")

	// Verification disabled: the same input composes.
	out, _, err := captureOutput(t, func() error {
		return run([]string{"compose",
			"-satisfiability=false",
			"-subgraph", "products=http://products:4001=" + products,
			"-subgraph", "reviews=http://reviews:4001=" + reviews,
		})
	})
	require.NoError(t, err)
	require.Contains(t, out, "type Product")
}

func TestCheck(t *testing.T) {
	products, reviews := writeSchemas(t)
	out, _, err := captureOutput(t, func() error {
		return run([]string{"check",
			"-subgraph", "products=http://products:4001=" + products,
			"-subgraph", "reviews=http://reviews:4001=" + reviews,
		})
	})
	require.NoError(t, err)
	require.Contains(t, out, "2 subgraph(s) OK")
}

func TestCheckReportsViolations(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.graphql")
	require.NoError(t, os.WriteFile(bad, []byte(`
		type Query { x: String }
		type Product @key(fields: "upc") { sku: String! }
	`), 0644))

	_, _, err := captureOutput(t, func() error {
		return run([]string{"check", "-subgraph", "bad=http://bad:4001=" + bad})
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown field "upc"`)
}
