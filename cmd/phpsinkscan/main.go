// Command phpsinkscan scans a single PHP file for configured sinks and
// prints the findings as JSON.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/taintwave/phpsentinel/pkg/findingstore"
	"github.com/taintwave/phpsentinel/pkg/phpparse"
	"github.com/taintwave/phpsentinel/pkg/report"
	"github.com/taintwave/phpsentinel/pkg/sinkcfg"
	"github.com/taintwave/phpsentinel/pkg/taint"
)

func main() {
	file := flag.String("file", "", "PHP file to scan")
	sinks := flag.String("sinks", "", "comma-separated sink names to scan for (default: built-in catalog)")
	pretty := flag.Bool("pretty", true, "pretty-print JSON output")
	summary := flag.Bool("summary", false, "print a verdict/sink summary instead of raw findings")
	cacheFile := flag.String("cache", "", "path to a findingstore cache database (optional)")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: phpsinkscan -file path/to/file.php")
		os.Exit(1)
	}

	source, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}

	sinkNames := sinkNamesOrDefault(*sinks)

	parser := phpparse.NewService(64)
	nodes, err := parser.Parse(*file, source)
	if err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}

	var store *findingstore.Store
	if *cacheFile != "" {
		store, err = findingstore.Open(*cacheFile)
		if err != nil {
			log.Fatalf("open cache %s: %v", *cacheFile, err)
		}
		defer store.Close()
	}

	tracer := taint.New(taint.DefaultConfig(), parser)

	var all []taint.Finding
	for _, line := range taint.SinkLines(nodes, sinkNames) {
		findings, _ := lookupOrScan(store, tracer, source, *file, sinkNames, line)
		all = append(all, findings...)
	}

	if *summary {
		printSummary(all)
		return
	}

	exporter := report.NewJSONExporter(*pretty)
	out, err := exporter.Export(all)
	if err != nil {
		log.Fatalf("render findings: %v", err)
	}
	fmt.Println(out)
}

func sinkNamesOrDefault(csv string) []string {
	if csv == "" {
		names := make([]string, 0, len(sinkcfg.DefaultSinks))
		for _, s := range sinkcfg.DefaultSinks {
			names = append(names, s.Name)
		}
		return names
	}
	parts := strings.Split(csv, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func lookupOrScan(store *findingstore.Store, tracer *taint.Tracer, source []byte, filePath string, sinkNames []string, line int) ([]taint.Finding, bool) {
	fileHash := fmt.Sprintf("%x", fnv64(source))
	sinkKey := strings.Join(sinkNames, ",")

	if store != nil {
		if cached, ok, err := store.Lookup(fileHash, sinkKey, line); err == nil && ok {
			return cached, true
		}
	}

	findings := tracer.Scan(source, filePath, sinkNames, line, nil)

	if store != nil {
		if err := store.Store(fileHash, sinkKey, line, findings); err != nil {
			log.Printf("cache store failed for %s:%d: %v", filePath, line, err)
		}
	}
	return findings, false
}

func printSummary(findings []taint.Finding) {
	s := report.Summarize(findings)
	fmt.Printf("total findings: %d\n", s.TotalFindings)
	for code, count := range s.ByVerdict {
		fmt.Printf("  %-12s %d\n", code, count)
	}
	for sink, count := range s.BySink {
		fmt.Printf("  sink=%-15s %d\n", sink, count)
	}
}

// fnv64 is the same content fingerprint pkg/phpparse's cache uses, repeated
// here because phpparse's copy is unexported.
func fnv64(data []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return h
}
