package optimizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// columns returns the sorted parameter and metric names found in results
func columns(results []*Result) (params []string, metrics []string) {
	paramNames := make(map[string]struct{})
	metricNames := make(map[string]struct{})

	for _, result := range results {
		for name := range result.Parameters {
			paramNames[name] = struct{}{}
		}
		for name := range result.Metrics {
			metricNames[name] = struct{}{}
		}
	}

	params = lo.Keys(paramNames)
	metrics = lo.Keys(metricNames)
	sort.Strings(params)
	sort.Strings(metrics)
	return params, metrics
}

func formatValue(value any) string {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', 4, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// row renders a result as its rank followed by parameter and metric values
func row(rank int, result *Result, params, metrics []string) []string {
	row := []string{strconv.Itoa(rank), result.Duration.String()}

	for _, name := range params {
		value, ok := result.Parameters[name]
		if !ok {
			row = append(row, "")
			continue
		}
		row = append(row, formatValue(value))
	}

	for _, name := range metrics {
		value, ok := result.Metrics[name]
		if !ok {
			row = append(row, "")
			continue
		}
		row = append(row, strconv.FormatFloat(value, 'f', 4, 64))
	}

	return row
}

// WriteResultsCSV writes results, already ranked, as CSV
func WriteResultsCSV(w io.Writer, results []*Result) error {
	writer := csv.NewWriter(w)
	params, metrics := columns(results)

	header := append([]string{"Rank", "Duration"}, params...)
	header = append(header, metrics...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, result := range results {
		if err := writer.Write(row(i+1, result, params, metrics)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveResultsToCSV saves optimization results to a CSV file
func SaveResultsToCSV(results []*Result, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return WriteResultsCSV(file, results)
}

// PrintResults renders the first topN results as a table
func PrintResults(w io.Writer, results []*Result, targetMetric MetricName, topN int) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results to display")
		return
	}

	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}

	params, metrics := columns(results)

	fmt.Fprintf(w, "\n=== Top %d Results (by %s) ===\n\n", len(results), targetMetric)

	table := tablewriter.NewWriter(w)
	header := append([]string{"#", "Duration"}, params...)
	header = append(header, lo.Map(metrics, func(name string, _ int) string {
		if name == string(targetMetric) {
			return "*" + name
		}
		return name
	})...)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for i, result := range results {
		table.Append(row(i+1, result, params, metrics))
	}
	table.Render()
}

// FormatParameterSet formats a parameter set as a string
func FormatParameterSet(params ParameterSet) string {
	names := lo.Keys(params)
	sort.Strings(names)

	parts := lo.Map(names, func(name string, _ int) string {
		return fmt.Sprintf("%s: %v", name, params[name])
	})

	return "{" + strings.Join(parts, ", ") + "}"
}
