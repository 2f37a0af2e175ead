package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hazyhaar/aitools/pdfpage"
	"github.com/hazyhaar/aitools/pdfsource"
)

func main() {
	file := flag.String("file", "", "PDF file to read")
	page := flag.Int("page", 1, "1-based page number")
	verbose := flag.Bool("v", false, "log decoding warnings to stderr")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: pdfpage -file <doc.pdf> [-page N]")
		os.Exit(2)
	}

	lvl := slog.LevelError
	if *verbose {
		lvl = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}

	extractor := pdfpage.New(pdfpage.Config{
		Opener: pdfsource.NewOpener(pdfsource.Config{Logger: logger}),
		Logger: logger,
	})
	res, err := extractor.Extract(context.Background(), data, *page)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		if errors.Is(err, pdfpage.ErrPageOutOfRange) {
			os.Exit(3)
		}
		os.Exit(1)
	}

	out := struct {
		*pdfpage.Result
		HasMore bool `json:"hasMore"`
	}{res, res.HasMore()}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
