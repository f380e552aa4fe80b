package billing

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RunResult is one end-to-end run's observed latency and cost, the
// per-run record orca_save_result tabulates.
type RunResult struct {
	Name    string
	E2E     float64
	Cost    float64
	Extra   map[string]float64
}

// SaveOrcaCSV writes the vCPU allocation, bound sweep, raw per-run
// results, and latency/cost percentile summary to w, in the same
// section layout as the original orca_save_result: num_vcpus, then
// x_bound, then raw_data, then statistics.
func SaveOrcaCSV(w io.Writer, numVCPUs []float64, xBound []float64, results []RunResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	writeRow := func(fields ...string) error { return cw.Write(fields) }

	if err := writeRow("num_vcpus"); err != nil {
		return err
	}
	row := make([]string, len(numVCPUs))
	for i, v := range numVCPUs {
		row[i] = fmt.Sprintf("%g", v)
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	if err := writeRow(); err != nil {
		return err
	}

	if err := writeRow("x_bound"); err != nil {
		return err
	}
	for _, b := range xBound {
		if err := writeRow(fmt.Sprintf("%g", b)); err != nil {
			return err
		}
	}
	if err := writeRow(); err != nil {
		return err
	}

	if err := writeRow("raw_data"); err != nil {
		return err
	}
	extraKeys := extraKeysOf(results)
	header := append([]string{"name", "e2e", "cost"}, extraKeys...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, r := range results {
		rec := append([]string{fmt.Sprintf("%d", i), fmt.Sprintf("%g", r.E2E), fmt.Sprintf("%g", r.Cost)}, make([]string, len(extraKeys))...)
		for j, k := range extraKeys {
			rec[3+j] = fmt.Sprintf("%g", r.Extra[k])
		}
		_ = r.Name
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	if err := writeRow(); err != nil {
		return err
	}

	if err := writeRow("statistics"); err != nil {
		return err
	}
	return writePercentileRows(cw, results)
}

func extraKeysOf(results []RunResult) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range results {
		for k := range r.Extra {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func writePercentileRows(cw *csv.Writer, results []RunResult) error {
	percentiles := []float64{90, 95, 99}

	e2e := make([]float64, len(results))
	cost := make([]float64, len(results))
	for i, r := range results {
		e2e[i] = r.E2E
		cost[i] = r.Cost
	}

	header := []string{"type", "average"}
	for _, p := range percentiles {
		header = append(header, fmt.Sprintf("P%g", p))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	latRow := append([]string{"latency"}, percentileRow(e2e, percentiles)...)
	costRow := append([]string{"cost"}, percentileRow(cost, percentiles)...)
	if err := cw.Write(latRow); err != nil {
		return err
	}
	return cw.Write(costRow)
}

func percentileRow(vals []float64, percentiles []float64) []string {
	avg := mean(vals)
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	row := []string{fmt.Sprintf("%g", avg)}
	for _, p := range percentiles {
		row = append(row, fmt.Sprintf("%g", stat.Quantile(p/100.0, stat.Empirical, sorted, nil)))
	}
	return row
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
