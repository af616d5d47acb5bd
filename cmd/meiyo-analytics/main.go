package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cognicore/meiyo/internal/logging"
	"github.com/cognicore/meiyo/pkg/meiyo"
	"github.com/cognicore/meiyo/pkg/meiyo/analytics"
	"github.com/cognicore/meiyo/pkg/meiyo/config"
	"github.com/cognicore/meiyo/pkg/meiyo/dictionary"
)

type report struct {
	DictionaryVersion string            `json:"dictionary_version"`
	Summary           analytics.Summary `json:"summary"`
	Samples           []sample          `json:"flagged_samples,omitempty"`
}

type sample struct {
	Line    int           `json:"line"`
	Text    string        `json:"text"`
	Verdict meiyo.Verdict `json:"verdict"`
	Terms   []string      `json:"terms,omitempty"`
}

// caseDoc is the JSONL shape written by scrape-cases.
type caseDoc struct {
	Text string `json:"text"`
}

func main() {
	var (
		input      = flag.String("input", "", "Input file, one text per line (required)")
		jsonl      = flag.Bool("jsonl", false, "Input is JSONL with a \"text\" field")
		configPath = flag.String("config", "", "YAML settings file (optional)")
		dictPath   = flag.String("dict", "", "Dictionary file (overrides config)")
		topK       = flag.Int("topk", 20, "Number of terms to report")
		samples    = flag.Int("samples", 10, "Number of flagged lines to include")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *dictPath != "" {
		cfg.Data.Dictionary = *dictPath
	}
	if cfg.Data.Dictionary == "" {
		log.Fatal("--dict required (or data.dictionary in --config)")
	}

	logger := logging.InitWriter(os.Stderr, "meiyo-analytics", "warn")
	engine, err := meiyo.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer f.Close()

	texts, err := readTexts(f, *jsonl)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	rep := analyze(engine, texts, *topK, *samples)

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("marshal report: %v", err)
	}
	fmt.Println(string(out))
}

type evaluator interface {
	Evaluate(text string) meiyo.Result
	Snapshot() *dictionary.Snapshot
}

func analyze(e evaluator, texts []string, topK, maxSamples int) report {
	tally := analytics.NewTally()
	rep := report{DictionaryVersion: e.Snapshot().Version()}
	for i, text := range texts {
		res := e.Evaluate(text)
		tally.Process(res)
		if res.Flagged() && len(rep.Samples) < maxSamples {
			rep.Samples = append(rep.Samples, sample{
				Line:    i + 1,
				Text:    text,
				Verdict: res.Verdict,
				Terms:   res.Terms,
			})
		}
	}
	rep.Summary = tally.Summary(topK)
	return rep
}

// readTexts returns the non-blank texts of r. JSONL lines that fail to
// decode are logged and skipped.
func readTexts(r io.Reader, jsonl bool) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var texts []string
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		if !jsonl {
			texts = append(texts, raw)
			continue
		}
		var doc caseDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			log.Printf("line %d: %v", line, err)
			continue
		}
		if text := strings.TrimSpace(doc.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return texts, scanner.Err()
}
