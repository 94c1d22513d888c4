package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dd0wney/cluso-threatmodel/pkg/architecture"
	"github.com/dd0wney/cluso-threatmodel/pkg/compiler"
	"github.com/dd0wney/cluso-threatmodel/pkg/export"
	"github.com/dd0wney/cluso-threatmodel/pkg/logging"
	"github.com/dd0wney/cluso-threatmodel/pkg/scoring"
	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
	"github.com/dd0wney/cluso-threatmodel/pkg/validation"
)

// batchFlags collects repeated -batch arguments of the form source=path.
// When the source tag is omitted the file name (without extension) is used.
type batchFlags []string

func (b *batchFlags) String() string { return strings.Join(*b, ",") }

func (b *batchFlags) Set(value string) error {
	*b = append(*b, value)
	return nil
}

func main() {
	var batches batchFlags
	graphPath := flag.String("graph", "", "Path to architecture graph JSON")
	scoringPath := flag.String("scoring", "", "Path to scoring config YAML (optional)")
	outPath := flag.String("out", "", "Output path (default stdout)")
	format := flag.String("format", "json", "Output format: json or tma")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flag.Var(&batches, "batch", "Threat batch as source=path (repeatable)")
	flag.Parse()

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(*logLevel))

	var scoringCfg *scoring.Config
	if *scoringPath != "" {
		cfg, err := scoring.LoadConfig(*scoringPath)
		if err != nil {
			fatal(logger, "failed to load scoring config", err)
		}
		scoringCfg = cfg
	}

	var graph *architecture.Graph
	if *graphPath != "" {
		g, err := loadGraph(*graphPath)
		if err != nil {
			fatal(logger, "failed to load architecture graph", err)
		}
		graph = g
	}

	threatBatches := make([]threat.Batch, 0, len(batches))
	for _, spec := range batches {
		batch, err := loadBatch(spec)
		if err != nil {
			fatal(logger, "failed to load batch", err)
		}
		threatBatches = append(threatBatches, batch)
	}

	c := compiler.New(compiler.Options{ScoringConfig: scoringCfg, Logger: logger})
	model := c.Compile(threatBatches, graph)

	if err := writeModel(model, *format, *outPath); err != nil {
		fatal(logger, "failed to write model", err)
	}
}

func fatal(logger logging.Logger, msg string, err error) {
	logger.Error(msg, logging.Error(err))
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func loadGraph(path string) (*architecture.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var graph architecture.Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := validation.ValidateGraph(&graph); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &graph, nil
}

func loadBatch(spec string) (threat.Batch, error) {
	source, path, found := strings.Cut(spec, "=")
	if !found {
		path = spec
		source = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if source == "" {
		return threat.Batch{}, fmt.Errorf("empty source tag in %q", spec)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return threat.Batch{}, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return threat.Batch{}, fmt.Errorf("%s: %w", path, err)
	}
	return threat.DecodeBatch(source, payload), nil
}

func writeModel(model compiler.CompiledThreatModel, format, outPath string) error {
	switch format {
	case "json":
		data, err := export.EncodeJSON(model)
		if err != nil {
			return err
		}
		if outPath == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(outPath, data, 0644)
	case "tma":
		if outPath == "" {
			_, err := export.WriteArtifact(os.Stdout, model)
			return err
		}
		_, err := export.WriteArtifactFile(outPath, model)
		return err
	default:
		return fmt.Errorf("unknown format %q (want json or tma)", format)
	}
}
