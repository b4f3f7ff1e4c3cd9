package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"nydb/internal/config"
	"nydb/internal/connectors"
	"nydb/internal/listener"
	"nydb/internal/logging"
	"nydb/internal/pipeline"
	"nydb/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger, err := logging.New(cfg)
	must(err)
	defer func() { _ = logging.Sync(logger) }()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		root := fs.String("root", cfg.InputDir, "input directory")
		xlsx := fs.String("xlsx", cfg.OutputXLSX, "output xlsx path")
		csv := fs.String("csv", cfg.OutputCSV, "output csv path")
		_ = fs.Parse(os.Args[2:])

		processor := pipeline.NewProcessingService(db, cfg, logger)
		res, err := processor.Run(context.Background(), pipeline.RunOptions{Root: *root, XLSXPath: *xlsx, CSVPath: *csv})
		must(err)
		fmt.Printf("done. %d documents visited.\n", len(res.Summary.Files))
		fmt.Printf("this produced %d records.\n", len(res.Rows))
		fmt.Printf("processed files: %v\n", res.Summary.Files)
	case "export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("runId", 0, "run id (latest when omitted)")
		xlsx := fs.String("xlsx", "", "output xlsx path")
		csv := fs.String("csv", "", "output csv path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*xlsx) == "" || strings.TrimSpace(*csv) == "" {
			must(fmt.Errorf("--xlsx and --csv are required"))
		}

		processor := pipeline.NewProcessingService(db, cfg, logger)
		id, count, err := processor.ExportRun(*runID, *xlsx, *csv)
		must(err)
		fmt.Printf("exported run=%d rows=%d xlsx=%s csv=%s\n", id, count, *xlsx, *csv)
	case "documents":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int64("runId", 0, "run id (latest when omitted)")
		_ = fs.Parse(os.Args[2:])

		processor := pipeline.NewProcessingService(db, cfg, logger)
		id, docs, err := processor.Documents(*runID)
		must(err)
		fmt.Printf("run=%d documents=%d\n", id, len(docs))
		for _, doc := range docs {
			fmt.Printf("%-9s records=%-4d score=%.2f %s\n", doc.Status, doc.Records, doc.LayoutScore, doc.Path)
		}
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "gmail", "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])

		conn, err := listener.MakeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.MailDir(), conn, logger)
		result, err := fetch.FetchAndStore(context.Background(), *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d dir=%s\n", *provider, result.Fetched, result.Stored, cfg.MailDir())
	case "watch":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(listener.NewService(db, cfg, logger).Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: nydb <command>")
	fmt.Println("commands:")
	fmt.Println("  run [--root=./data/docs] [--xlsx=./nydb.xlsx] [--csv=./nydb.csv]")
	fmt.Println("  export [--runId=1] --xlsx=./out/nydb.xlsx --csv=./out/nydb.csv")
	fmt.Println("  documents [--runId=1]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
