package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/canopyhq/canopy/pkg/compiler"
	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/registry"
)

// graphFile is the on-disk authoring format: YAML or JSON with the same
// node and edge shapes the admin surface sends.
type graphFile struct {
	Nodes       []domain.Node `json:"nodes"`
	Edges       []domain.Edge `json:"edges"`
	SpecVersion string        `json:"spec_version"`
}

var compileCmd = &cobra.Command{
	Use:   "compile <graph-file>",
	Short: "Compile an orchestration graph file into an executable spec",
	Long: `Reads a graph (YAML or JSON), normalizes every node against the kind
registry, derives orchestration config, and writes the compiled spec as
JSON to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		strict, _ := cmd.Flags().GetBool("strict")

		graph, err := readGraphFile(args[0])
		if err != nil {
			return err
		}

		spec := compiler.Compile(graph.Nodes, graph.Edges, compiler.Options{
			Registry:    registry.Builtin(),
			SpecVersion: graph.SpecVersion,
		})

		if err := compiler.CheckEdges(spec.Nodes, spec.Edges); err != nil {
			if strict {
				return err
			}
			logger.Warn("graph has dangling edge references", "err", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(spec)
	},
}

// readGraphFile loads a graph in YAML or JSON form. YAML documents are
// round-tripped through JSON so both formats share one set of field
// spellings.
func readGraphFile(path string) (*graphFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml graph: %w", err)
		}
		raw, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert yaml graph: %w", err)
		}
	}

	var graph graphFile
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}
	return &graph, nil
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().Bool("strict", false, "Fail on dangling edge references instead of warning")
}
