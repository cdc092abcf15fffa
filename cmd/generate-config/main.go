package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/debemdeboas/folio/internal/config"
)

const header = `# Folio configuration example
# Copy this file to config.yaml and customize as needed.
# Secrets (FOLIO_JWT_SECRET, FOLIO_ED25519_PUBKEY, AWS_*, DATABASE_URL) are read
# from the environment or a .env file, never from here.

`

func generate() ([]byte, error) {
	yamlData, err := yaml.Marshal(config.Default())
	if err != nil {
		return nil, err
	}
	return append([]byte(header), yamlData...), nil
}

func main() {
	output, err := generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	// Write to file or stdout
	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		fmt.Print(string(output))
		return
	}
	if err := os.WriteFile(outputFile, output, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
