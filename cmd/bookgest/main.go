// Command bookgest parses book files from the command line through the same
// pipeline the HTTP service uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/bookgest/internal/abx"
	"github.com/dgallion1/bookgest/internal/chunker"
	"github.com/dgallion1/bookgest/internal/classify"
	"github.com/dgallion1/bookgest/internal/config"
	"github.com/dgallion1/bookgest/internal/export"
	"github.com/dgallion1/bookgest/internal/pipeline"
)

var CLI struct {
	LogLevel string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level for stderr output"`

	Parse      ParseCmd      `cmd:"" help:"Parse files and print their records"`
	Categories CategoriesCmd `cmd:"" help:"List classifier categories"`
}

// ParseCmd runs files through the ingestion pipeline.
type ParseCmd struct {
	Files    []string `arg:"" name:"file" help:"Files to parse" type:"existingfile"`
	Mode     string   `default:"tolerant" enum:"tolerant,strict" help:"ABX parse mode"`
	Format   string   `short:"f" default:"json" enum:"json,yaml" help:"Output format"`
	Workers  int      `short:"w" default:"4" help:"Concurrent parse workers"`
	Passages bool     `help:"Include passages in the output"`
	Dedup    bool     `help:"Report files whose parsed text repeats an earlier file as duplicate_skipped instead of emitting their records"`
}

// CategoriesCmd prints the fixed category list.
type CategoriesCmd struct {
	Format string `short:"f" default:"text" enum:"text,json,yaml" help:"Output format"`
}

type fileReport struct {
	File           string             `json:"file" yaml:"file"`
	JobID          string             `json:"job_id" yaml:"job_id"`
	Status         pipeline.JobStatus `json:"status" yaml:"status"`
	DuplicateOf    string             `json:"duplicate_of,omitempty" yaml:"duplicate_of,omitempty"`
	Errors         []string           `json:"errors,omitempty" yaml:"errors,omitempty"`
	Classification *classify.Result   `json:"classification,omitempty" yaml:"classification,omitempty"`
	Diagnostics    abx.Diagnostics    `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Record         *export.Record     `json:"record,omitempty" yaml:"record,omitempty"`
	Passages       []chunker.Passage  `json:"passages,omitempty" yaml:"passages,omitempty"`
}

func (c *ParseCmd) Run(log *slog.Logger) error {
	return c.run(context.Background(), os.Stdout, log)
}

func (c *ParseCmd) run(ctx context.Context, out io.Writer, log *slog.Logger) error {
	cfg := config.Load()
	cfg.ParseMode = c.Mode
	cfg.AllowDuplicates = !c.Dedup
	if c.Workers > 0 {
		cfg.WorkerCount = c.Workers
	}
	if cfg.MaxQueueSize < len(c.Files) {
		cfg.MaxQueueSize = len(c.Files)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(ctx)
	defer orch.Stop()

	jobs := make([]*pipeline.Job, 0, len(c.Files))
	for _, path := range c.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		job := pipeline.NewJob(filepath.Base(path), data)
		if err := orch.Submit(job); err != nil {
			return fmt.Errorf("submit %s: %w", path, err)
		}
		jobs = append(jobs, job)
	}

	reports := make([]fileReport, 0, len(jobs))
	failed := 0
	for i, job := range jobs {
		select {
		case <-job.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		snap := job.Snapshot()
		rep := fileReport{
			File:        c.Files[i],
			JobID:       snap.ID,
			Status:      snap.Status,
			DuplicateOf: snap.DuplicateOf,
			Errors:      snap.Progress.Errors,
		}
		if res := job.Result(); res != nil {
			rep.Classification = &res.Classification
			rep.Diagnostics = res.Diagnostics
			rep.Record = res.Record
			if c.Passages {
				rep.Passages = res.Passages
			}
		}
		if snap.Status == pipeline.StatusFailed {
			failed++
		}
		reports = append(reports, rep)
	}

	if err := encode(out, c.Format, reports); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(jobs))
	}
	return nil
}

func (c *CategoriesCmd) Run() error {
	return c.run(os.Stdout)
}

func (c *CategoriesCmd) run(out io.Writer) error {
	cats := classify.Categories()
	if c.Format != "text" {
		return encode(out, c.Format, cats)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tARABIC\tKEYWORDS")
	for _, cat := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cat.ID, cat.Name, cat.NameArabic, strings.Join(cat.Keywords, "، "))
	}
	return tw.Flush()
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("bookgest"),
		kong.Description("Parse ABX and other book files into chaptered records"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(newLogger(CLI.LogLevel)))
}
