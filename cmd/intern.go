// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strconv"
	"sync/atomic"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/open-policy-agent/symtab/config"
	"github.com/open-policy-agent/symtab/intern"
	"github.com/open-policy-agent/symtab/intern/hashing"
	"github.com/open-policy-agent/symtab/logging"
	"github.com/open-policy-agent/symtab/metrics"
	"github.com/open-policy-agent/symtab/pool"
)

const (
	splitWords = "words"
	splitLines = "lines"

	outputTable = "table"
	outputJSON  = "json"
)

type internParams struct {
	configFile string
	poolName   string
	hasher     string
	split      string
	output     string
	logLevel   string
	workers    int
	nfc        bool
	dump       bool
	metrics    bool
}

type internReport struct {
	Pools   []intern.Stats `json:"pools"`
	Tokens  int64          `json:"tokens"`
	Skipped int64          `json:"skipped"`
	Entries []dumpEntry    `json:"entries,omitempty"`
	Metrics []metricRow    `json:"metrics,omitempty"`
}

type dumpEntry struct {
	ID   intern.ID `json:"id"`
	Text string    `json:"text"`
}

type metricRow struct {
	Name   string  `json:"name"`
	Pool   string  `json:"pool"`
	Result string  `json:"result,omitempty"`
	Value  float64 `json:"value"`
}

func init() {
	RootCommand.AddCommand(newInternCommand())
}

func newInternCommand() *cobra.Command {
	internCommand := &cobra.Command{
		Use:   "intern [file...]",
		Short: "Intern tokens read from files or stdin",
		Long: `Intern every token of the given files into a pool and report the pool statistics.

Files are processed concurrently. With no arguments, or with "-", tokens are
read from standard input. Tokens that are not valid UTF-8 are skipped.

Pools are either declared in a YAML file passed with --config, or a single
pool named by --pool is created with the hash strategy selected by --hasher.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			params := internParams{
				configFile: v.GetString("config"),
				poolName:   v.GetString("pool"),
				hasher:     v.GetString("hasher"),
				split:      v.GetString("split"),
				output:     v.GetString("format"),
				logLevel:   v.GetString("log-level"),
				workers:    v.GetInt("workers"),
				nfc:        v.GetBool("nfc"),
				dump:       v.GetBool("dump"),
				metrics:    v.GetBool("metrics"),
			}
			return runIntern(cmd.Context(), params, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	fs := internCommand.Flags()
	fs.StringP("config", "c", "", "YAML file declaring pools")
	fs.StringP("pool", "p", "default", "name of the pool to intern into")
	fs.String("hasher", hashing.Default, fmt.Sprintf("hash strategy when no config file is given %v", hashing.Names))
	fs.String("split", splitWords, "token boundaries: words or lines")
	fs.StringP("format", "f", outputTable, "output format: table or json")
	fs.String("log-level", "error", "log level: error, warn, info or debug")
	fs.IntP("workers", "w", runtime.GOMAXPROCS(0), "number of files processed concurrently")
	fs.Bool("nfc", false, "normalize tokens to Unicode NFC before interning")
	fs.Bool("dump", false, "print every interned entry of the pool")
	fs.Bool("metrics", false, "print the Prometheus metrics of all pools")

	return internCommand
}

func runIntern(ctx context.Context, params internParams, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	splitFunc, err := splitterFor(params.split)
	if err != nil {
		return err
	}
	if params.output != outputTable && params.output != outputJSON {
		return fmt.Errorf("unknown format %q", params.output)
	}

	logger := logging.New()
	logger.SetOutput(stderr)
	lvl, ok := logging.ParseLevel(params.logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", params.logLevel)
	}
	logger.SetLevel(lvl)

	registry := pool.NewRegistry()
	def, err := selectPool(params, registry, logger)
	if err != nil {
		return err
	}
	m := def.Map()

	if len(args) == 0 {
		args = []string{"-"}
	}
	if i := slices.Index(args, "-"); i >= 0 && slices.Contains(args[i+1:], "-") {
		return errors.New("standard input can only be read once")
	}

	var tokens, skipped atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(params.workers, 1))
	for _, name := range args {
		g.Go(func() error {
			r, closer, err := openSource(name, stdin)
			if err != nil {
				return err
			}
			defer closer()

			n, s, err := internTokens(ctx, m, r, splitFunc, params.nfc)
			tokens.Add(n)
			skipped.Add(s)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			logger.Debug("Interned %d tokens from %s.", n, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report := internReport{
		Tokens:  tokens.Load(),
		Skipped: skipped.Load(),
	}
	for _, d := range registry.Definitions() {
		if d.Built() {
			report.Pools = append(report.Pools, d.Map().Stats())
		}
	}
	if params.dump {
		m.Range(func(id intern.ID, text string) bool {
			report.Entries = append(report.Entries, dumpEntry{ID: id, Text: text})
			return true
		})
	}
	if params.metrics {
		rows, err := gatherMetrics(registry)
		if err != nil {
			return err
		}
		report.Metrics = rows
	}

	if params.output == outputJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return writeTables(stdout, report)
}

func splitterFor(mode string) (bufio.SplitFunc, error) {
	switch mode {
	case splitWords:
		return bufio.ScanWords, nil
	case splitLines:
		return bufio.ScanLines, nil
	}
	return nil, fmt.Errorf("unknown split mode %q", mode)
}

func selectPool(params internParams, registry *pool.Registry, logger logging.Logger) (*pool.Definition, error) {
	if params.configFile == "" {
		if _, _, err := hashing.ByName(params.hasher); err != nil {
			return nil, err
		}
		return pool.Define(params.poolName,
			pool.WithRegistry(registry),
			pool.WithLogger(logger),
			pool.WithHashers(params.hasher),
		), nil
	}

	cfg, err := config.Load(params.configFile)
	if err != nil {
		return nil, err
	}
	defs, err := cfg.Definitions(registry, logger)
	if err != nil {
		return nil, err
	}
	def, ok := defs[params.poolName]
	if !ok {
		return nil, fmt.Errorf("pool %q is not declared in %s", params.poolName, params.configFile)
	}
	return def, nil
}

func openSource(name string, stdin io.Reader) (io.Reader, func(), error) {
	if name == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// internTokens interns every token of r into m. It returns the number of
// tokens interned and the number skipped because they were not valid UTF-8.
func internTokens(ctx context.Context, m *intern.Map, r io.Reader, split bufio.SplitFunc, nfc bool) (int64, int64, error) {
	buf := getScanBuffer()
	defer putScanBuffer(buf)

	sc := bufio.NewScanner(r)
	sc.Buffer(*buf, maxTokenSize)
	sc.Split(split)

	var n, skipped int64
	for sc.Scan() {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return n, skipped, err
			}
		}

		tok := sc.Bytes()
		if !utf8.Valid(tok) {
			skipped++
			continue
		}
		if nfc && !norm.NFC.IsNormal(tok) {
			tok = norm.NFC.Bytes(tok)
		}
		m.InternBytes(tok)
		n++
	}
	return n, skipped, sc.Err()
}

func gatherMetrics(registry *pool.Registry) ([]metricRow, error) {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(metrics.NewRegistryCollector(registry)); err != nil {
		return nil, err
	}
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}

	var rows []metricRow
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			row := metricRow{Name: f.GetName()}
			for _, lp := range metric.GetLabel() {
				switch lp.GetName() {
				case "pool":
					row.Pool = lp.GetValue()
				case "result":
					row.Result = lp.GetValue()
				}
			}
			switch {
			case metric.GetGauge() != nil:
				row.Value = metric.GetGauge().GetValue()
			case metric.GetCounter() != nil:
				row.Value = metric.GetCounter().GetValue()
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func writeTables(w io.Writer, report internReport) error {
	table := tablewriter.NewWriter(w)
	table.Header("Pool", "Entries", "Next ID", "Hits", "Misses", "Arena Bytes")
	for _, s := range report.Pools {
		if err := table.Append([]string{
			s.Name,
			strconv.Itoa(s.Entries),
			strconv.FormatUint(uint64(s.NextID), 10),
			strconv.FormatUint(s.Hits, 10),
			strconv.FormatUint(s.Misses, 10),
			strconv.FormatInt(s.ArenaBytes, 10),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "tokens: %d, skipped: %d\n", report.Tokens, report.Skipped)

	if len(report.Entries) > 0 {
		entries := tablewriter.NewWriter(w)
		entries.Header("ID", "Text")
		for _, e := range report.Entries {
			if err := entries.Append([]string{strconv.FormatUint(uint64(e.ID), 10), strconv.Quote(e.Text)}); err != nil {
				return err
			}
		}
		if err := entries.Render(); err != nil {
			return err
		}
	}

	if len(report.Metrics) > 0 {
		mt := tablewriter.NewWriter(w)
		mt.Header("Metric", "Pool", "Result", "Value")
		for _, r := range report.Metrics {
			if err := mt.Append([]string{r.Name, r.Pool, r.Result, strconv.FormatFloat(r.Value, 'f', -1, 64)}); err != nil {
				return err
			}
		}
		if err := mt.Render(); err != nil {
			return err
		}
	}
	return nil
}
