// Package pipeline orchestrates one analysis run: provision a grammar,
// extract symbols, infer call edges, render the diagram, and assemble the
// Markdown report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oakhurstlabs/codeatlas/internal/grammar"
	"github.com/oakhurstlabs/codeatlas/internal/graph"
	"github.com/oakhurstlabs/codeatlas/internal/render"
	"github.com/oakhurstlabs/codeatlas/internal/report"
)

// DocsFileName is the report file written under the output directory.
const DocsFileName = "docs.md"

// DiagramFileName is the rendered diagram written under the output directory.
const DiagramFileName = "ccg.png"

// Config parameterizes one pipeline run. Root and OutputDir are required;
// everything else has a usable zero value.
type Config struct {
	// Root is the local checkout to analyze.
	Root string

	// OutputDir receives docs.md and ccg.png.
	OutputDir string

	// Language selects the grammar. Empty means autodetect from Root.
	Language grammar.Language

	// Summary is the project overview text for the report. Empty means the
	// README placeholder.
	Summary string

	// Title overrides the report title.
	Title string

	// ExcludeDirs are directory names skipped in addition to the defaults.
	ExcludeDirs []string

	// MaxSymbolsPerFile caps call-edge inference per file. Zero means the
	// inferrer default.
	MaxSymbolsPerFile int

	// Workers bounds extraction parallelism. Zero means GOMAXPROCS.
	Workers int

	// DisableRender skips diagram rasterization entirely.
	DisableRender bool

	// RenderTimeout bounds the Graphviz invocation. Zero means the
	// renderer default.
	RenderTimeout time.Duration

	// IncludeMermaid embeds a Mermaid diagram section in the report.
	IncludeMermaid bool

	// IncludeFiles adds the analyzed-file listing to the report.
	IncludeFiles bool

	// Provisioner supplies grammars. Nil means a default provisioner.
	Provisioner *grammar.Provisioner

	// Inferrer derives call edges. Nil means WordBoundaryInferrer.
	Inferrer graph.Inferrer

	// Renderer rasterizes the diagram. Nil means the Graphviz renderer.
	Renderer *render.Renderer

	// Store, when non-nil, receives the sealed graph after assembly.
	Store graph.Store

	// Reporter receives progress events. May be nil.
	Reporter *ProgressReporter

	// Logger receives diagnostic records. Nil means discard.
	Logger *slog.Logger
}

// Result is the outcome of one successful pipeline run. RenderErr records a
// non-fatal diagram degradation; DiagramPath is empty in that case.
type Result struct {
	Graph        *graph.Graph
	Stats        graph.Stats
	SkippedFiles int
	DocsPath     string
	DiagramPath  string
	RenderErr    error
}

// Run executes the pipeline once. Stage order is fixed: provision, extract,
// infer, build, render, assemble. Render failures are recorded on the Result
// and never abort the run; every other stage error is terminal and
// classified by Kind.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	prov := cfg.Provisioner
	if prov == nil {
		var err error
		prov, err = grammar.NewProvisioner()
		if err != nil {
			return nil, err
		}
	}

	lang := cfg.Language
	if lang == "" {
		lang = grammar.Detect(cfg.Root, cfg.ExcludeDirs)
		log.Debug("language autodetected", "lang", string(lang))
	}

	cfg.Reporter.Emit(ProgressEvent{Stage: StageProvision, Status: ProgressWorking})
	handle, err := prov.Ensure(ctx, lang)
	if err != nil {
		cfg.Reporter.Emit(ProgressEvent{Stage: StageProvision, Status: ProgressFailed, Message: err.Error()})
		return nil, err
	}
	cfg.Reporter.Emit(ProgressEvent{Stage: StageProvision, Status: ProgressComplete, Message: string(lang)})

	cfg.Reporter.Emit(ProgressEvent{Stage: StageExtract, Status: ProgressWorking})
	ex, err := graph.Extract(ctx, cfg.Root, handle, graph.ExtractOptions{
		ExcludeDirs: cfg.ExcludeDirs,
		Workers:     cfg.Workers,
	})
	if err != nil {
		cfg.Reporter.Emit(ProgressEvent{Stage: StageExtract, Status: ProgressFailed, Message: err.Error()})
		return nil, err
	}
	cfg.Reporter.Emit(ProgressEvent{
		Stage:   StageExtract,
		Status:  ProgressComplete,
		Message: fmt.Sprintf("%d files, %d skipped", len(ex.Files), ex.Skipped),
	})

	inferrer := cfg.Inferrer
	if inferrer == nil {
		inferrer = &graph.WordBoundaryInferrer{MaxSymbolsPerFile: cfg.MaxSymbolsPerFile}
	}

	cfg.Reporter.Emit(ProgressEvent{Stage: StageInfer, Status: ProgressWorking})
	edges := inferrer.Infer(ex)

	b := graph.NewBuilder()
	for _, f := range ex.Files {
		b.AddFile(f)
	}
	for _, s := range ex.Symbols() {
		b.AddNode(s)
	}
	for _, e := range edges {
		if err := b.AddEdge(e); err != nil {
			cfg.Reporter.Emit(ProgressEvent{Stage: StageInfer, Status: ProgressFailed, Message: err.Error()})
			return nil, err
		}
	}
	g := b.Seal()
	stats := g.Stats()
	cfg.Reporter.Emit(ProgressEvent{
		Stage:   StageInfer,
		Status:  ProgressComplete,
		Message: fmt.Sprintf("%d symbols, %d edges", len(g.Nodes()), len(g.Edges())),
	})

	res := &Result{
		Graph:        g,
		Stats:        stats,
		SkippedFiles: ex.Skipped,
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", graph.ErrIOFailure, cfg.OutputDir, err)
	}

	// An empty graph has nothing to draw; the report simply carries no
	// diagram reference in that case.
	diagramRef := ""
	if !cfg.DisableRender && len(g.Nodes()) > 0 {
		cfg.Reporter.Emit(ProgressEvent{Stage: StageRender, Status: ProgressWorking})
		renderer := cfg.Renderer
		if renderer == nil {
			renderer = &render.Renderer{Timeout: cfg.RenderTimeout}
		}
		diagramPath := filepath.Join(cfg.OutputDir, DiagramFileName)
		if err := renderer.RenderPNG(ctx, render.GenerateDOT(g), diagramPath); err != nil {
			// Non-fatal: the report is still produced, minus the image.
			res.RenderErr = err
			log.Warn("diagram rendering degraded", "err", err)
			cfg.Reporter.Emit(ProgressEvent{Stage: StageRender, Status: ProgressDegraded, Message: err.Error()})
		} else {
			res.DiagramPath = diagramPath
			diagramRef = DiagramFileName
			cfg.Reporter.Emit(ProgressEvent{Stage: StageRender, Status: ProgressComplete})
		}
	}

	cfg.Reporter.Emit(ProgressEvent{Stage: StageAssemble, Status: ProgressWorking})
	opts := report.Options{Title: cfg.Title}
	if cfg.IncludeMermaid {
		opts.Mermaid = render.GenerateMermaid(g)
	}
	if cfg.IncludeFiles {
		opts.Files = g.Files()
	}
	md := report.Assemble(cfg.Summary, stats, diagramRef, opts)

	docsPath := filepath.Join(cfg.OutputDir, DocsFileName)
	if err := writeFileAtomic(docsPath, []byte(md)); err != nil {
		cfg.Reporter.Emit(ProgressEvent{Stage: StageAssemble, Status: ProgressFailed, Message: err.Error()})
		return nil, fmt.Errorf("%w: %s: %v", graph.ErrIOFailure, docsPath, err)
	}
	res.DocsPath = docsPath
	cfg.Reporter.Emit(ProgressEvent{Stage: StageAssemble, Status: ProgressComplete, Message: docsPath})

	if cfg.Store != nil {
		if err := cfg.Store.InitSchema(ctx); err != nil {
			return nil, err
		}
		if err := cfg.Store.SaveGraph(ctx, g); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// writeFileAtomic writes data through a sibling temp file and renames it
// into place, so readers never observe a partial report.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
