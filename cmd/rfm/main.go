package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tirasundara/rfm-service/internal/domain"
	"github.com/tirasundara/rfm-service/internal/logger"
	"github.com/tirasundara/rfm-service/internal/normalizer"
	"github.com/tirasundara/rfm-service/internal/report"
	"github.com/tirasundara/rfm-service/internal/repository"
	"github.com/tirasundara/rfm-service/internal/service"
)

const dateFormat = "2006-01-02"

func main() {
	// Command-line flags
	var (
		transactionsFile string
		sqliteDB         string
		importFile       string
		nowStr           string
		dayStr           string
		dataset          string
		outputFormat     string
		outputFile       string
		dateLayout       string
		logLevel         string
		prettyPrint      bool
	)

	flag.StringVar(&transactionsFile, "transactions", "", "Path to the ledger CSV file")
	flag.StringVar(&sqliteDB, "sqlite-db", "", "Path to a SQLite ledger store, used instead of -transactions")
	flag.StringVar(&importFile, "import", "", "Ledger CSV file to import into -sqlite-db before computing")
	flag.StringVar(&nowStr, "now", "", "Reference date (YYYY-MM-DD), defaults to today")
	flag.StringVar(&dayStr, "day", "", "Day to summarize (YYYY-MM-DD), defaults to the reference date")
	flag.StringVar(&dataset, "dataset", "rfm", "Dataset to output: transactions, rfm, day or all")
	flag.StringVar(&outputFormat, "format", "json", "Output format: json or csv (csv writes the RFM dataset)")
	flag.StringVar(&outputFile, "output", "", "Path to output file (if empty, writes to stdout)")
	flag.StringVar(&dateLayout, "date-layout", normalizer.DefaultDateLayout, "Go time layout of the ledger's transaction dates")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	flag.BoolVar(&prettyPrint, "pretty", true, "Pretty print JSON output")

	flag.Parse()

	// Validate flags
	if transactionsFile == "" && sqliteDB == "" {
		exitWithError("Either -transactions or -sqlite-db is required")
	}
	if transactionsFile != "" && sqliteDB != "" {
		exitWithError("-transactions and -sqlite-db are mutually exclusive")
	}
	if importFile != "" && sqliteDB == "" {
		exitWithError("-import requires -sqlite-db")
	}

	var now time.Time
	if nowStr != "" {
		var err error
		now, err = time.Parse(dateFormat, nowStr)
		if err != nil {
			exitWithError(fmt.Sprintf("Invalid now date format: %v", err))
		}
	}

	var day time.Time
	if dayStr != "" {
		var err error
		day, err = time.Parse(dateFormat, dayStr)
		if err != nil {
			exitWithError(fmt.Sprintf("Invalid day format: %v", err))
		}
	}

	formatter, err := report.NewFormatter(outputFormat, prettyPrint)
	if err != nil {
		exitWithError(err.Error())
	}

	opts := options{
		transactionsFile: transactionsFile,
		sqliteDB:         sqliteDB,
		importFile:       importFile,
		now:              now,
		day:              day,
		dataset:          dataset,
		outputFile:       outputFile,
		dateLayout:       dateLayout,
		logLevel:         logLevel,
	}

	if err := run(opts, formatter); err != nil {
		exitWithError(err.Error())
	}
}

type options struct {
	transactionsFile string
	sqliteDB         string
	importFile       string
	now              time.Time
	day              time.Time
	dataset          string
	outputFile       string
	dateLayout       string
	logLevel         string
}

func run(opts options, formatter report.OutputFormatter) error {
	log := logger.NewWithWriter(os.Stderr).Level(logger.ParseLevel(opts.logLevel))
	ctx := logger.WithContext(context.Background(), log)

	// Create the ledger repository
	var repo domain.TransactionRepository
	if opts.sqliteDB != "" {
		store, err := repository.NewSQLiteTransactionRepository(opts.sqliteDB)
		if err != nil {
			return fmt.Errorf("failed to open ledger store: %w", err)
		}
		defer store.Close()

		if opts.importFile != "" {
			records, err := repository.NewCSVTransactionRepository(opts.importFile).GetRawTransactions(ctx)
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			n, err := store.ImportRaw(ctx, records)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			log.Info().Int("rows", n).Str("file", opts.importFile).Msg("Ledger imported")
		}
		repo = store
	} else {
		repo = repository.NewCSVTransactionRepository(opts.transactionsFile)
	}

	rfmService := service.NewRFMService(repo, normalizer.New(opts.dateLayout), time.Now, log)

	// Run the requested pipeline
	var (
		analysis domain.Analysis
		err      error
	)
	switch opts.dataset {
	case "transactions":
		analysis.ReferenceTime = rfmService.Now()
		analysis.Transactions, err = rfmService.Transactions(ctx)
	case "rfm":
		analysis, err = rfmService.RFM(ctx, opts.now)
	case "day":
		day := opts.day
		if day.IsZero() {
			day = opts.now
		}
		if day.IsZero() {
			day = rfmService.Now()
		}
		analysis, err = rfmService.DaySummary(ctx, day, opts.now)
	case "all":
		analysis, err = rfmService.Analyze(ctx, opts.now)
	default:
		return fmt.Errorf("unsupported dataset: %s", opts.dataset)
	}
	if err != nil {
		return fmt.Errorf("RFM computation failed: %w", err)
	}

	output, err := formatter.Format(analysis)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Output the result
	outputFile := opts.outputFile
	if outputFile != "" {
		// If no extension is provided, add the formatter's default extension
		if !strings.Contains(outputFile, ".") {
			outputFile = fmt.Sprintf("%s.%s", outputFile, formatter.FileExtension())
		}

		if err := os.WriteFile(outputFile, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	} else {
		// Write output to stdout
		fmt.Println(string(output))
	}

	return nil
}

func exitWithError(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Run with -h flag for usage information.\n")
	os.Exit(1)
}
