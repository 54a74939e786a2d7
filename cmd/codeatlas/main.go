// Command codeatlas analyzes a repository into a code context graph and
// writes a Markdown report plus a call diagram.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/oakhurstlabs/codeatlas/internal/config"
	"github.com/oakhurstlabs/codeatlas/internal/grammar"
	"github.com/oakhurstlabs/codeatlas/internal/pipeline"
	"github.com/oakhurstlabs/codeatlas/internal/repo"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Root          string
	RepoURL       string
	OutputDir     string
	Language      string
	GraphDB       string
	RenderTimeout time.Duration
	NoRender      bool
	Tree          bool
	Mermaid       bool
	Verbose       bool
	Version       bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		kind := pipeline.Kind(err)
		if kind != "" && kind != pipeline.KindUnknown {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("codeatlas", flag.ContinueOnError)
	fs.StringVar(&flags.Root, "root", ".", "path to the target repository checkout")
	fs.StringVar(&flags.RepoURL, "repo", "", "clone URL; overrides -root with a fresh shallow clone")
	fs.StringVar(&flags.OutputDir, "out", "", "output directory (default <root>/outputs)")
	fs.StringVar(&flags.Language, "lang", "", "extraction language (default autodetect)")
	fs.StringVar(&flags.GraphDB, "graph-db", "", "persist the graph to a KuzuDB database at this path")
	fs.DurationVar(&flags.RenderTimeout, "render-timeout", 0, "graphviz invocation timeout")
	fs.BoolVar(&flags.NoRender, "no-render", false, "skip diagram rasterization")
	fs.BoolVar(&flags.Tree, "tree", false, "print the repository file tree as JSON and exit")
	fs.BoolVar(&flags.Mermaid, "mermaid", false, "embed a Mermaid diagram in the report")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := flags.Root
	if flags.RepoURL != "" {
		fmt.Printf("Cloning %s...\n", flags.RepoURL)
		dir, cleanup, err := repo.Clone(ctx, flags.RepoURL)
		if err != nil {
			return err
		}
		defer cleanup()
		root = dir
	}

	if flags.Tree {
		tree, err := repo.FileTree(root)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	outputDir := flags.OutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if outputDir == "" {
		outputDir = filepath.Join(root, "outputs")
	}
	lang := flags.Language
	if lang == "" {
		lang = cfg.Language
	}

	logLevel := slog.LevelWarn
	if flags.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	store, err := openGraphStore(flags.GraphDB)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	reporter := pipeline.NewProgressReporter()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range reporter.Subscribe() {
			fmt.Println(pipeline.FormatProgress(ev))
		}
	}()

	pcfg := pipeline.Config{
		Root:              root,
		OutputDir:         outputDir,
		Language:          grammar.Language(lang),
		Summary:           repo.ReadmeSummary(root),
		Title:             "Code Context Graph: " + filepath.Base(root),
		ExcludeDirs:       cfg.ExcludeDirs,
		MaxSymbolsPerFile: cfg.MaxSymbolsPerFile,
		DisableRender:     flags.NoRender || cfg.NoRender,
		RenderTimeout:     flags.RenderTimeout,
		IncludeMermaid:    flags.Mermaid,
		Store:             store,
		Reporter:          reporter,
		Logger:            logger,
	}

	res, runErr := pipeline.Run(ctx, pcfg)
	reporter.Close()
	wg.Wait()
	if runErr != nil {
		return runErr
	}

	fmt.Printf("\nFiles analyzed: %d\nFunctions: %d\nClasses: %d\n",
		res.Stats.FilesAnalyzed, res.Stats.Functions, res.Stats.Classes)
	if res.SkippedFiles > 0 {
		fmt.Printf("Skipped files: %d\n", res.SkippedFiles)
	}
	fmt.Printf("Report: %s\n", res.DocsPath)
	if res.DiagramPath != "" {
		fmt.Printf("Diagram: %s\n", res.DiagramPath)
	} else if res.RenderErr != nil {
		fmt.Printf("Diagram: skipped (%v)\n", res.RenderErr)
	}
	return nil
}
