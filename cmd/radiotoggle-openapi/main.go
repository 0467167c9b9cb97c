// Command radiotoggle-openapi prints the OpenAPI document for the radiotoggled
// HTTP API. Routes are registered against stub handlers, so no daemon or
// D-Bus connection is needed.
//
// Usage:
//
//	go run ./cmd/radiotoggle-openapi > openapi.json
//	go run ./cmd/radiotoggle-openapi --yaml > openapi.yaml
//	go run ./cmd/radiotoggle-openapi --output openapi.json
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/radiotoggle/internal/http/routes"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	outputFile := flag.StringP("output", "o", "", "Output file path (default: stdout)")
	outputYAML := flag.Bool("yaml", false, "Output as YAML instead of JSON")
	baseURL := flag.String("base-url", "", "Base URL for the API server")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	data, err := generate(version, *baseURL, *outputYAML)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshaling OpenAPI document: %v\n", err)
		os.Exit(1)
	}

	if *outputFile == "" {
		fmt.Print(string(data))
		return
	}
	if err := os.WriteFile(*outputFile, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing to file: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "OpenAPI document written to %s\n", *outputFile)
}

func generate(version, baseURL string, asYAML bool) ([]byte, error) {
	api := humachi.New(chi.NewRouter(), routes.NewHumaConfig(version, baseURL))
	routes.Register(api, routes.StubHandlers())

	doc := api.OpenAPI()
	if asYAML {
		return yaml.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}
