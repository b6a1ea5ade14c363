package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"optimind/internal/config"
	"optimind/internal/formulate"
	"optimind/internal/knowledge"
	"optimind/internal/llm"
	llmclient "optimind/internal/llmClient"
	"optimind/internal/pipeline"
	"optimind/internal/solver"
	"optimind/internal/types"
	"optimind/internal/validate"
)

func main() {
	problem := flag.String("problem", "", "problem description text")
	file := flag.String("f", "", "read the problem description from a file")
	corpus := flag.String("corpus", "", "path to the exemplar corpus JSON (overrides env)")
	k := flag.Int("k", 0, "number of exemplars per prompt (0 uses config)")
	retries := flag.Int("retries", 0, "max formulation attempts (0 uses config)")
	fake := flag.Bool("fake", false, "use the offline fake reasoning backend and a canned solver")
	outDir := flag.String("out", "out", "output directory")
	flag.Parse()

	text := strings.TrimSpace(*problem)
	if *file != "" {
		b, err := os.ReadFile(*file)
		if err != nil {
			log.Fatal(err)
		}
		text = strings.TrimSpace(string(b))
	}
	if text == "" {
		log.Fatal("--problem or -f is required")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *k > 0 {
		cfg.ExemplarK = *k
	}
	if *retries > 0 {
		cfg.MaxAttempts = *retries
	}
	if *corpus != "" {
		cfg.CorpusPath = *corpus
	}

	ctx := context.Background()

	cli, err := buildClient(ctx, cfg, *fake)
	if err != nil {
		log.Fatal(err)
	}
	defer cli.Close()

	var retriever *knowledge.Retriever
	exemplars, err := knowledge.LoadCorpus(ctx, cfg.CorpusPath)
	if err != nil {
		log.Printf("corpus unavailable, formulating without exemplars: %v", err)
	} else {
		retriever, err = knowledge.NewRetriever(exemplars, 0)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("loaded %d exemplars from %s", retriever.CorpusSize(), cfg.CorpusPath)
	}

	validator := validate.NewValidator()
	formulator := formulate.New(cli, retriever, validator,
		formulate.WithMaxAttempts(cfg.MaxAttempts),
		formulate.WithExemplarCount(cfg.ExemplarK),
	)

	var opts []pipeline.Option
	opts = append(opts, pipeline.WithSolveTimeout(cfg.SolveTimeout))
	if cfg.Archive.Enabled {
		archiver, err := pipeline.NewS3Archiver(cfg.Archive.Endpoint, cfg.Archive.AccessKey,
			cfg.Archive.SecretKey, cfg.Archive.Bucket, cfg.Archive.UseSSL)
		if err != nil {
			log.Printf("archive disabled: %v", err)
		} else {
			opts = append(opts, pipeline.WithArchiver(archiver))
		}
	}

	pipe := pipeline.New(formulator, solver.NewSelector(nil), validator, backends(*fake), opts...)

	out, runErr := pipe.Run(ctx, text)
	writeJSON(*outDir, "outcome.json", out)
	if runErr != nil {
		log.Fatalf("pipeline stopped at %s: %v", out.Stage, runErr)
	}

	spec, sol, err := out.Verified()
	if err != nil {
		log.Fatalf("result withheld: %v", err)
	}
	log.Printf("verified %s solution via %s: objective %g", spec.ModelType, sol.Backend, sol.ObjectiveValue)
	for name, val := range sol.VariableValues {
		fmt.Printf("  %s = %g\n", name, val)
	}
	log.Println("run completed →", *outDir)
}

// buildClient assembles the resilient reasoning client: regional transports
// wrapped in logging, rate limiting, retry and failover.
func buildClient(ctx context.Context, cfg *config.Config, fake bool) (llmclient.LLMClient, error) {
	if fake {
		return llm.NewFakeClient(), nil
	}
	endpoints := llmclient.DefaultEndpoints()
	clients := make([]llmclient.LLMClient, 0, len(endpoints))
	for _, ep := range endpoints {
		c, err := ep.Build(ctx)
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", ep.Region, err)
		}
		// Retry budget is per region: once a region exhausts it, failover
		// moves on instead of hammering the same endpoint.
		clients = append(clients, llm.Wrap(c, llm.Retry(cfg.RetryAttempts, cfg.RetryBaseDelay)))
	}
	return llm.Wrap(clients[0],
		llm.WithLogging(nil),
		llm.RateLimit(cfg.RateRPS, cfg.RateBurst, cfg.RateMaxWait),
		llm.Failover(clients[1:], cfg.AttemptTimeout, nil),
	), nil
}

// backends maps capability-matrix names to implementations. Offline runs get
// a canned engine registered under every linear-capable name; online runs
// against real engines plug in here.
func backends(fake bool) map[string]solver.Backend {
	if !fake {
		return nil
	}
	canned := &solver.StaticBackend{
		BackendName: "highs",
		Result: types.Solution{
			Status:         types.StatusOptimal,
			ObjectiveValue: 1800,
			VariableValues: map[string]float64{"x1": 30, "x2": 20},
			SolveTime:      time.Millisecond,
		},
	}
	return map[string]solver.Backend{"highs": canned, "glop": canned, "cbc": canned}
}

func writeJSON(dir, name string, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("encode %s: %v", name, err)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
		log.Printf("write %s: %v", name, err)
	}
}
