// Package compiler wires the threat pipeline together: source batches go in,
// a fully scored, deduplicated, and aggregated threat model comes out.
package compiler

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-threatmodel/pkg/architecture"
	"github.com/dd0wney/cluso-threatmodel/pkg/dedup"
	"github.com/dd0wney/cluso-threatmodel/pkg/logging"
	"github.com/dd0wney/cluso-threatmodel/pkg/metrics"
	"github.com/dd0wney/cluso-threatmodel/pkg/paths"
	"github.com/dd0wney/cluso-threatmodel/pkg/risk"
	"github.com/dd0wney/cluso-threatmodel/pkg/scoring"
	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
)

// Compiler runs the compilation pipeline. Zero value is not usable; construct
// with New.
type Compiler struct {
	scorer  *scoring.Scorer
	logger  logging.Logger
	metrics *metrics.Registry
}

// Options configures a Compiler. Every field is optional: a nil scoring
// config means built-in defaults, a nil logger means silence, a nil metrics
// registry means no instrumentation.
type Options struct {
	ScoringConfig *scoring.Config
	Logger        logging.Logger
	Metrics       *metrics.Registry
}

// New creates a Compiler with the given options.
func New(opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Compiler{
		scorer:  scoring.NewScorer(opts.ScoringConfig),
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// Compile runs the full pipeline over the given source batches against the
// architecture graph. It never returns an error: malformed records are
// dropped with a rejection record, missing context degrades to neutral
// scoring, and an internal panic yields an empty model. Identical inputs
// always produce an identical model.
func (c *Compiler) Compile(batches []threat.Batch, graph *architecture.Graph) (model CompiledThreatModel) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("compilation panicked, returning empty model",
				logging.Any("panic", fmt.Sprint(r)))
			if c.metrics != nil {
				c.metrics.RecordCompileRun("panic", 0)
			}
			model = EmptyModel()
		}
	}()

	c.logger.Info("starting threat model compilation",
		logging.Int("batches", len(batches)))

	raws := make([]threat.RawThreat, 0)
	for _, batch := range batches {
		raws = append(raws, batch.RawThreats()...)
	}

	start := time.Now()
	normalized, rejections := threat.Normalize(raws)
	c.recordStage("normalize", start)
	c.logger.Info("normalized threats",
		logging.ThreatCount(len(normalized)),
		logging.Int("rejected", len(rejections)))
	for _, rej := range rejections {
		c.logger.Warn("rejected malformed threat",
			logging.Source(rej.Source),
			logging.String("reason", rej.Reason))
	}
	if c.metrics != nil {
		c.metrics.RecordNormalization(len(normalized), rejectionsBySource(rejections))
	}

	start = time.Now()
	scored := c.scorer.Score(normalized, graph)
	c.recordStage("score", start)

	start = time.Now()
	deduped := dedup.Deduplicate(scored)
	c.recordStage("dedup", start)
	merged := len(scored) - len(deduped)
	if merged > 0 {
		c.logger.Info("merged duplicate threats", logging.Int("merged", merged))
	}
	if c.metrics != nil {
		c.metrics.RecordMerges(merged)
	}

	start = time.Now()
	summary := risk.Aggregate(deduped)
	levels := risk.ComponentRiskLevels(deduped)
	c.recordStage("aggregate", start)

	start = time.Now()
	findings := paths.FindCriticalPaths(deduped, graph)
	if findings == nil {
		findings = []paths.Finding{}
	}
	c.recordStage("paths", start)
	if c.metrics != nil {
		c.metrics.RecordCriticalPaths(len(findings))
		c.metrics.SetRiskDistribution(summary.RiskDistribution)
		c.metrics.RecordCompileRun("success", len(deduped))
	}

	c.logger.Info("compiled threat model",
		logging.ThreatCount(len(deduped)),
		logging.Int("critical_paths", len(findings)))
	if len(deduped) > 0 {
		top := deduped[0]
		c.logger.Info("highest ranked threat",
			logging.ThreatID(top.ID),
			logging.Component(top.ComponentName),
			logging.Score(top.CriticalityScore))
	}

	return CompiledThreatModel{
		Threats:                deduped,
		ComponentMapping:       componentMapping(deduped),
		ComponentRiskLevels:    levels,
		CriticalPaths:          findings,
		ImprovementSuggestions: Suggestions(deduped, graph),
		RiskSummary:            summary,
		Rejections:             rejections,
	}
}

func (c *Compiler) recordStage(stage string, start time.Time) {
	elapsed := time.Since(start)
	c.logger.Debug("stage complete", logging.Stage(stage), logging.Duration("elapsed", elapsed))
	if c.metrics != nil {
		c.metrics.RecordStage(stage, elapsed)
	}
}

// componentMapping indexes threat ids by every component each threat names,
// primary first. Ids appear in pipeline order and at most once per component.
func componentMapping(threats []threat.Threat) map[string][]string {
	mapping := make(map[string][]string)
	for _, th := range threats {
		if th.ComponentName != "" {
			mapping[th.ComponentName] = append(mapping[th.ComponentName], th.ID)
		}
		for _, name := range th.AffectedComponents {
			if name == th.ComponentName {
				continue
			}
			mapping[name] = append(mapping[name], th.ID)
		}
	}
	return mapping
}

func rejectionsBySource(rejections []threat.Rejection) map[string]int {
	if len(rejections) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, r := range rejections {
		counts[r.Source]++
	}
	return counts
}
