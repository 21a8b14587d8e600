package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/phrazzld/synthgen/internal/config"
	"github.com/phrazzld/synthgen/internal/corpus"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/generation"
	"github.com/phrazzld/synthgen/internal/render"
	"github.com/phrazzld/synthgen/internal/sink"
	"github.com/phrazzld/synthgen/internal/store"
	"github.com/phrazzld/synthgen/internal/task"
)

// progressInterval is how many finished items pass between progress logs.
const progressInterval = 100

// runOptions are the flags and arguments of the run command.
type runOptions struct {
	input   string
	output  string
	prompts string

	single        bool
	templatePath  string
	system        string
	exemplarsPath string
	exemplarCount int
}

// pipelineDeps are the collaborators a run needs.
type pipelineDeps struct {
	cache    store.CacheStore
	executor generation.Executor
	pipeline config.PipelineConfig
	logger   *slog.Logger
}

func runCommand(ctx context.Context, env *cliEnv, args []string) error {
	fs := env.newFlagSet("run")
	var opts runOptions
	fs.BoolVar(&opts.single, "single", false, "process one randomly chosen item with a single worker")
	fs.StringVar(&opts.templatePath, "template", "", "path to a user prompt template (text/template)")
	fs.StringVar(&opts.system, "system", "", "system instruction sent with every request")
	fs.StringVar(&opts.exemplarsPath, "exemplars", "", "path to a file of few-shot exemplars")
	fs.IntVar(&opts.exemplarCount, "exemplar-count", 3, "number of exemplars sampled per request")
	fs.StringVar(&opts.prompts, "prompts", "", "also write each record's rendered prompt to this file")
	fs.Usage = func() {
		fmt.Fprintln(env.stderr, "Usage: synthgen run [flags] <input> <output>")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}
	opts.input, opts.output = fs.Arg(0), fs.Arg(1)

	cfg, log, err := env.loadConfig()
	if err != nil {
		return err
	}
	if err := config.ValidateLLM(cfg); err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	executor, err := app.newExecutor(ctx)
	if err != nil {
		return err
	}

	return runPipeline(ctx, opts, pipelineDeps{
		cache:    app.cache,
		executor: executor,
		pipeline: cfg.Pipeline,
		logger:   log,
	}, env.stdout)
}

// runPipeline reads the corpus, processes it and writes the result file.
// The result file is written even when ctx is cancelled part way, holding
// every record produced so far; the cancellation error is then returned.
func runPipeline(ctx context.Context, opts runOptions, deps pipelineDeps, stdout io.Writer) error {
	log := deps.logger

	c, err := corpus.ReadFile(opts.input, log)
	if err != nil {
		return err
	}
	if len(c.Malformed) > 0 {
		log.Warn("corpus contains malformed entries",
			"malformed", len(c.Malformed),
			"valid", len(c.Items))
	}

	items := c.Items
	concurrency := deps.pipeline.Concurrency
	if opts.single {
		if len(items) == 0 {
			return errors.New("corpus holds no valid items")
		}
		pick := items[rand.IntN(len(items))]
		log.Info("single mode: processing one item", "item_id", pick.ID.String())
		items = []*domain.WorkItem{pick}
		concurrency = 1
	}

	renderer, err := newRenderer(opts)
	if err != nil {
		return err
	}

	runner, err := task.NewRunner(deps.cache, deps.executor, renderer, task.RunnerConfig{
		CallTimeout: deps.pipeline.CallTimeout,
		RateLimit:   deps.pipeline.RateLimit,
		RateBurst:   deps.pipeline.RateBurst,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	coordinator, err := task.NewCoordinator(runner, deps.cache, task.CoordinatorConfig{
		Concurrency: concurrency,
		QueueSize:   deps.pipeline.QueueSize,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}

	var finished atomic.Int64
	coordinator.OnOutcome = func(out task.Outcome) {
		if n := finished.Add(1); n%progressInterval == 0 {
			log.Info("progress", "finished", n, "total", len(items))
		}
	}

	result, procErr := coordinator.Process(ctx, items)
	if result == nil {
		return procErr
	}

	entries := make([]sink.Entry, 0, len(result.Outcomes))
	for _, out := range result.Outcomes {
		entries = append(entries, sink.NewEntry(out.Item, out.Record))
	}
	sink.SortByID(entries)

	if err := sink.WriteFile(opts.output, entries); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if opts.prompts != "" {
		if err := writePrompts(opts.prompts, result); err != nil {
			return err
		}
	}

	printSummary(stdout, opts.output, len(c.Malformed), result)

	if procErr != nil {
		return fmt.Errorf("run interrupted, partial results written: %w", procErr)
	}
	return nil
}

// writePrompts writes the prompt of every record that has one. Records
// cached before prompts were stored are left out.
func writePrompts(path string, result *task.PipelineResult) error {
	prompts := make([]sink.PromptEntry, 0, len(result.Outcomes))
	for _, out := range result.Outcomes {
		if e, ok := sink.NewPromptEntry(out.Record); ok {
			prompts = append(prompts, e)
		}
	}
	sink.SortPromptsByID(prompts)

	if err := sink.WriteFile(path, prompts); err != nil {
		return fmt.Errorf("failed to write prompts: %w", err)
	}
	return nil
}

// newRenderer builds the prompt renderer from the run flags.
func newRenderer(opts runOptions) (*render.TemplateRenderer, error) {
	var userTemplate string
	if opts.templatePath != "" {
		t, err := render.LoadTemplate(opts.templatePath)
		if err != nil {
			return nil, err
		}
		userTemplate = t
	}

	var sampler *render.ExemplarSampler
	if opts.exemplarsPath != "" {
		s, err := render.NewExemplarSamplerFromFile(opts.exemplarsPath, opts.exemplarCount)
		if err != nil {
			return nil, fmt.Errorf("failed to load exemplars: %w", err)
		}
		sampler = s
	}

	return render.NewTemplateRenderer(opts.system, userTemplate, sampler)
}

// printSummary reports the counts and elapsed time of a run.
func printSummary(w io.Writer, output string, malformed int, result *task.PipelineResult) {
	s := result.Stats
	fmt.Fprintf(w, "items:      %d (%d malformed in corpus)\n", s.Total, malformed)
	fmt.Fprintf(w, "invalid:    %d\n", s.Invalid)
	fmt.Fprintf(w, "duplicates: %d\n", s.Duplicates)
	fmt.Fprintf(w, "cached:     %d\n", s.CachedReused)
	fmt.Fprintf(w, "processed:  %d\n", s.Processed)
	fmt.Fprintf(w, "skipped:    %d\n", s.Skipped)
	fmt.Fprintf(w, "elapsed:    %s\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "wrote %d records to %s\n", len(result.Outcomes), output)
}
