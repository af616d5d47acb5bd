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
	"github.com/cognicore/meiyo/pkg/meiyo/config"
)

func main() {
	var (
		configPath    = flag.String("config", "", "YAML settings file (optional)")
		dictPath      = flag.String("dict", "", "Offensive-term dictionary (overrides config)")
		whitelistPath = flag.String("whitelist", "", "Whitelist file (overrides config)")
		surnamesPath  = flag.String("surnames", "", "Surname list file or directory (overrides config)")
		text          = flag.String("text", "", "One-shot text (non-interactive mode)")
		asJSON        = flag.Bool("json", false, "Print results as JSON")
		logLevel      = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger := logging.InitWriter(os.Stderr, "meiyo", *logLevel)

	cfg, err := loadConfig(*configPath, *dictPath, *whitelistPath, *surnamesPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Data.Dictionary == "" {
		log.Fatal("--dict required (or data.dictionary in --config)")
	}

	engine, err := meiyo.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close()

	// One-shot mode
	if *text != "" {
		if err := printResult(os.Stdout, engine.Evaluate(*text), *asJSON); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Interactive mode
	st := engine.Snapshot().Stats()
	fmt.Println("===========================================")
	fmt.Println("  Meiyo checker")
	fmt.Printf("  dictionary %s (%d terms)\n", st.Version, st.Terms)
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Type a sentence to check (Ctrl+D to exit):")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := printResult(os.Stdout, engine.Evaluate(line), *asJSON); err != nil {
			fmt.Println("Error:", err)
		}
	}

	fmt.Println("\nさようなら")
}

// loadConfig reads the settings file, if any, and applies path overrides.
func loadConfig(path, dict, whitelist, surnames string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if dict != "" {
		cfg.Data.Dictionary = dict
	}
	if whitelist != "" {
		cfg.Data.Whitelist = whitelist
	}
	if surnames != "" {
		cfg.Data.Surnames = surnames
	}
	return cfg, nil
}

func printResult(w io.Writer, res meiyo.Result, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(res)
	}
	fmt.Fprintf(w, "[%s]\n", res.Verdict)
	if len(res.Terms) > 0 {
		fmt.Fprintf(w, "  terms: %s\n", strings.Join(res.Terms, ", "))
	}
	_, err := fmt.Fprintf(w, "  %s\n\n", res.Detail)
	return err
}
