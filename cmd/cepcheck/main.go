// Command cepcheck looks postal codes up against the address service and
// reports, per phase, which codes normalize, which requests succeed, and which
// codes resolve to an address.
//
// Usage:
//
//	go run ./cmd/cepcheck 01001-000 99999999
//	go run ./cmd/cepcheck -file codes.txt -strict
//
// The exit status is non-zero when a phase fails. Transport errors always
// fail; codes that do not normalize or are not found fail only with -strict.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/form-assist-service/internal/adapter/viacep"
	"github.com/couchcryptid/form-assist-service/internal/domain"
	"github.com/couchcryptid/form-assist-service/internal/observability"
)

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	baseURL := flag.String("base-url", viacep.DefaultBaseURL, "address service base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	file := flag.String("file", "", "file with one postal code per line")
	strict := flag.Bool("strict", false, "fail when a code is skipped or not found")
	flag.Parse()

	codes := flag.Args()
	if *file != "" {
		fromFile, err := readCodes(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read codes: %v\n", err)
			os.Exit(1)
		}
		codes = append(codes, fromFile...)
	}
	if len(codes) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := viacep.NewClient(*baseURL, *timeout, observability.NewUnregisteredMetrics(), logger)

	if code := run(context.Background(), os.Stdout, client, codes, *strict); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, w io.Writer, lookup domain.AddressLookup, codes []string, strict bool) int {
	fmt.Fprintln(w, "=== Postal Code Check ===")
	fmt.Fprintln(w)

	normalization := &phase{name: "Normalization (8 digits)"}
	transport := &phase{name: "Lookup transport"}
	resolution := &phase{name: "Lookup resolution"}

	var found, notFound, failed, skipped int
	for _, raw := range codes {
		code, ok := domain.NormalizePostalCode(raw)
		if !ok {
			skipped++
			if strict {
				normalization.errorf("%q: %d digits after normalization", raw, len(code))
			}
			fmt.Fprintf(w, "  %-12s skipped\n", raw)
			continue
		}

		result := lookup.Lookup(ctx, code)
		switch result.Status {
		case domain.LookupFound:
			found++
			a := result.Address
			fmt.Fprintf(w, "  %-12s found      %s, %s, %s - %s\n", code, a.Street, a.District, a.City, a.Region)
		case domain.LookupNotFound:
			notFound++
			if strict {
				resolution.errorf("%s: not found", code)
			}
			fmt.Fprintf(w, "  %-12s not found\n", code)
		default:
			failed++
			transport.errorf("%s: %v", code, result.Err)
			fmt.Fprintf(w, "  %-12s error\n", code)
		}
	}

	phases := []*phase{normalization, transport, resolution}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Codes: %d found, %d not found, %d errors, %d skipped\n", found, notFound, failed, skipped)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for _, e := range p.errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func readCodes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var codes []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		codes = append(codes, line)
	}
	return codes, sc.Err()
}
