// Command vague compiles a .vague source file into generated JSON: one JSON
// document whose top-level keys are the collections of every dataset in the
// file. Flag parsing, configuration precedence, and the
// log.Fatalf-on-fatal-error style are grounded on the teacher's main.go,
// re-scoped from "start an HTTP mock server" to "run one compile and exit".
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/mcclowes/vague"
	"github.com/mcclowes/vague/internal/config"
	"github.com/mcclowes/vague/internal/value"
	"github.com/spf13/pflag"
)

func main() {
	sourceFile := pflag.String("source", "", "Path to the .vague source file")
	configFile := pflag.String("config", "", "Path to configuration file (YAML or JSON)")
	seed := pflag.Int64("seed", 0, "PRNG seed (omit for a random seed each run)")
	constraintRetries := pflag.Int("constraint-retries", 0, "Per-record assume retry budget (0 keeps the config default)")
	validateRetries := pflag.Int("validate-retries", 0, "Dataset-level validate retry budget (0 keeps the config default)")
	uniqueRetries := pflag.Int("unique-retries", 0, "Unique-field resample retry budget (0 keeps the config default)")
	logLevel := pflag.String("log-level", "", "Logger level: debug, info, warn, error")
	importRoot := pflag.String("import-root", "", "Base directory for resolving `import ... from \"path\"` directives")
	output := pflag.String("output", "", "Write generated JSON to this path instead of stdout")

	pflag.Parse()

	if *sourceFile == "" {
		fmt.Fprintln(os.Stderr, "Error: --source is required")
		printUsage()
		os.Exit(1)
	}

	src, err := os.ReadFile(*sourceFile) // #nosec G304 - operator-supplied CLI argument
	if err != nil {
		log.Fatalf("Failed to read source file: %v", err)
	}

	cliFlags := &config.CLIFlags{
		ImportRoot: importRoot,
		LogLevel:   logLevel,
	}
	if *seed != 0 {
		cliFlags.Seed = seed
	}
	if *constraintRetries != 0 {
		cliFlags.ConstraintRetries = constraintRetries
	}
	if *validateRetries != 0 {
		cliFlags.ValidateRetries = validateRetries
	}
	if *uniqueRetries != 0 {
		cliFlags.UniqueRetries = uniqueRetries
	}

	cfg, err := config.LoadConfig(*configFile, cliFlags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	compiler, err := vague.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build compiler: %v", err)
	}

	result, err := compiler.Compile(string(src))
	if err != nil {
		log.Fatalf("Compile failed: %v", err)
	}

	encoded, err := json.MarshalIndent(rawCollections(result), "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	if *output == "" {
		fmt.Println(string(encoded))
		return
	}
	if err := os.WriteFile(*output, encoded, 0o600); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}
	log.Printf("Wrote %s (seed %d)", *output, result.Seed)
}

// rawCollections converts a vague.Result's records into an order-preserving
// JSON-ready shape (internal/value.RawRecord), keyed directly by dataset
// collection name (spec.md section 6.2: one top-level key per collection).
func rawCollections(result *vague.Result) map[string][]*value.RawRecord {
	out := make(map[string][]*value.RawRecord, len(result.Collections))
	for collName, records := range result.Collections {
		rows := make([]*value.RawRecord, len(records))
		for i, rec := range records {
			rows[i] = value.NewRawRecord(rec)
		}
		out[collName] = rows
	}
	return out
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s --source FILE [flags]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nRequired:\n")
	fmt.Fprintf(os.Stderr, "  --source\t\tPath to the .vague source file\n")
	fmt.Fprintf(os.Stderr, "\nConfiguration options:\n")
	fmt.Fprintf(os.Stderr, "  --config\t\tPath to configuration file (YAML or JSON)\n")
	fmt.Fprintf(os.Stderr, "  --seed\t\tPRNG seed (omit for a random seed each run)\n")
	fmt.Fprintf(os.Stderr, "  --constraint-retries\tPer-record assume retry budget\n")
	fmt.Fprintf(os.Stderr, "  --validate-retries\tDataset-level validate retry budget\n")
	fmt.Fprintf(os.Stderr, "  --unique-retries\tUnique-field resample retry budget\n")
	fmt.Fprintf(os.Stderr, "  --log-level\t\tLogger level: debug, info, warn, error\n")
	fmt.Fprintf(os.Stderr, "  --import-root\t\tBase directory for resolving imports\n")
	fmt.Fprintf(os.Stderr, "  --output\t\tWrite generated JSON to this path instead of stdout\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
	fmt.Fprintf(os.Stderr, "  VAGUE_SEED, VAGUE_CONSTRAINT_RETRIES, VAGUE_VALIDATE_RETRIES\n")
	fmt.Fprintf(os.Stderr, "  VAGUE_UNIQUE_RETRIES, VAGUE_LOG_LEVEL, VAGUE_IMPORT_ROOT\n")
}
