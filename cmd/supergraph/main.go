package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/hanpama/supergraph/internal/composition"
	"github.com/hanpama/supergraph/internal/otel"
	"github.com/hanpama/supergraph/internal/schema"
	"github.com/hanpama/supergraph/internal/subgraph"
)

const rootUsage = `supergraph — federated schema composition tools

USAGE:
  supergraph <command> [flags]

COMMANDS:
  compose          Compose subgraph schemas into a supergraph schema
  check            Validate subgraph schemas without merging
  help             Show help for any command
`

const composeUsage = `compose FLAGS:
  -subgraph <name=url=file>  Subgraph schema to compose. Repeatable; at least
                             one required, e.g.
                               -subgraph products=http://products:4001=products.graphql
  -out <file>                Write composed SDL to file (default: stdout)
  -routing-out <file>        Write routing metadata JSON to file
  -satisfiability <bool>     Run satisfiability validation (default: true)
  -otel.endpoint <addr>      OTLP collector endpoint
  -otel.service <name>       OpenTelemetry service name (default: supergraph)
`

const checkUsage = `check FLAGS:
  -subgraph <name=url=file>  Subgraph schema to check. Repeatable; at least
                             one required.
  (Runs expansion, upgrade, validation and pre-merge checks; exits non-zero
   on errors)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("supergraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "compose":
		return cmdCompose(cmdArgs)
	case "check":
		return cmdCheck(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "compose":
		fmt.Print(composeUsage)
	case "check":
		fmt.Print(checkUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// subgraphFlag collects repeatable name=url=file mappings in declaration
// order.
type subgraphFlag struct {
	entries []subgraphEntry
}

type subgraphEntry struct {
	name string
	url  string
	file string
}

func (f *subgraphFlag) String() string { return "" }

func (f *subgraphFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 3)
	if len(parts) != 3 {
		return fmt.Errorf("invalid subgraph %q, want name=url=file", v)
	}
	name := strings.TrimSpace(parts[0])
	url := strings.TrimSpace(parts[1])
	file := strings.TrimSpace(parts[2])
	if name == "" || file == "" {
		return fmt.Errorf("invalid subgraph %q, want name=url=file", v)
	}
	f.entries = append(f.entries, subgraphEntry{name: name, url: url, file: file})
	return nil
}

func (f *subgraphFlag) load() ([]subgraph.Subgraph[subgraph.Initial], error) {
	var subgraphs []subgraph.Subgraph[subgraph.Initial]
	for _, e := range f.entries {
		sdl, err := os.ReadFile(e.file)
		if err != nil {
			return nil, err
		}
		s, err := subgraph.Parse(e.name, e.url, string(sdl))
		if err != nil {
			return nil, err
		}
		subgraphs = append(subgraphs, s)
	}
	return subgraphs, nil
}

func cmdCompose(args []string) error {
	outFile := ""
	routingFile := ""
	runSatisfiability := true
	otelEndpoint := ""
	otelService := "supergraph"
	var sf subgraphFlag

	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&sf, "subgraph", "Subgraph schema to compose")
	fs.StringVar(&outFile, "out", outFile, "Write composed SDL to file")
	fs.StringVar(&routingFile, "routing-out", routingFile, "Write routing metadata JSON to file")
	fs.BoolVar(&runSatisfiability, "satisfiability", runSatisfiability, "Run satisfiability validation")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, composeUsage)
		return err
	}
	if len(sf.entries) == 0 {
		fmt.Fprint(os.Stderr, composeUsage)
		return fmt.Errorf("at least one -subgraph is required")
	}

	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	subgraphs, err := sf.load()
	if err != nil {
		return err
	}

	opts := composition.Options{RunSatisfiability: runSatisfiability}
	sg, errs := composition.ComposeWithOptions(context.Background(), subgraphs, opts)
	if len(errs) > 0 {
		return errs
	}

	for _, h := range sg.Hints {
		fmt.Fprintf(os.Stderr, "hint[%s]: %s\n", h.Code, h.Message)
	}

	sdl := schema.Render(sg.Schema)
	if outFile == "" {
		fmt.Print(sdl)
	} else if err := os.WriteFile(outFile, []byte(sdl), 0644); err != nil {
		return err
	}

	if routingFile != "" {
		data, err := json.MarshalIndent(sg.Routing, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(routingFile, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

func cmdCheck(args []string) error {
	var sf subgraphFlag
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&sf, "subgraph", "Subgraph schema to check")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkUsage)
		return err
	}
	if len(sf.entries) == 0 {
		fmt.Fprint(os.Stderr, checkUsage)
		return fmt.Errorf("at least one -subgraph is required")
	}

	subgraphs, err := sf.load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	expanded, errs := composition.ExpandSubgraphs(ctx, subgraphs)
	if len(errs) > 0 {
		return errs
	}
	upgraded, errs := composition.UpgradeSubgraphs(ctx, expanded)
	if len(errs) > 0 {
		return errs
	}
	validated, errs := composition.ValidateSubgraphs(ctx, upgraded)
	if len(errs) > 0 {
		return errs
	}
	if errs := composition.PreMergeValidations(validated); len(errs) > 0 {
		return errs
	}
	fmt.Printf("%d subgraph(s) OK\n", len(validated))
	return nil
}
