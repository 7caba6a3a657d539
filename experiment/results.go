// Package experiment provides the scaffolding for scripted measurement
// sequences: procedures with a startup, execute, shutdown lifecycle, a
// worker that runs them in the background, and CSV results files that
// carry their own metadata.
package experiment

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Results writes measurement records as CSV, preceded by a
// #-prefixed comment header that records what produced them
type Results struct {
	mu      sync.Mutex
	w       *bufio.Writer
	csv     *csv.Writer
	columns []string
	wrote   bool

	// Name labels the procedure that produced the data
	Name string

	// Parameters are the procedure parameters at the time of the run
	Parameters map[string]string
}

// NewResults creates a results writer producing the given columns,
// in order, on every record
func NewResults(w io.Writer, name string, params map[string]string, columns []string) *Results {
	bw := bufio.NewWriter(w)
	return &Results{
		w:          bw,
		csv:        csv.NewWriter(bw),
		columns:    columns,
		Name:       name,
		Parameters: params,
	}
}

// writeHeader emits the comment block and the column labels
func (r *Results) writeHeader() error {
	fmt.Fprintf(r.w, "# Procedure: %s\n", r.Name)
	fmt.Fprintf(r.w, "# Started: %s\n", time.Now().Format(time.RFC3339))
	keys := make([]string, 0, len(r.Parameters))
	for k := range r.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(r.w, "# Parameter %s: %s\n", k, r.Parameters[k])
	}
	return r.csv.Write(r.columns)
}

// Write appends one record.  Columns missing from data are left empty.
func (r *Results) Write(data map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.wrote {
		if err := r.writeHeader(); err != nil {
			return err
		}
		r.wrote = true
	}
	row := make([]string, len(r.columns))
	for i, c := range r.columns {
		if v, ok := data[c]; ok {
			row[i] = strconv.FormatFloat(v, 'G', -1, 64)
		}
	}
	if err := r.csv.Write(row); err != nil {
		return err
	}
	r.csv.Flush()
	if err := r.csv.Error(); err != nil {
		return err
	}
	return r.w.Flush()
}

// ParsedResults is a results file read back into memory
type ParsedResults struct {
	// Name is the procedure label from the header
	Name string

	// Parameters are the procedure parameters from the header
	Parameters map[string]string

	// Columns are the data column labels, in file order
	Columns []string

	// Records holds one map per data row
	Records []map[string]float64
}

// ParseResults reads a results file written by Results back into
// memory.  Unparseable numeric fields are skipped, matching the
// forgiving behavior expected of long log files.
func ParseResults(rd io.Reader) (*ParsedResults, error) {
	out := &ParsedResults{Parameters: map[string]string{}}
	scanner := bufio.NewScanner(rd)
	var dataLines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
			switch {
			case strings.HasPrefix(body, "Procedure:"):
				out.Name = strings.TrimSpace(strings.TrimPrefix(body, "Procedure:"))
			case strings.HasPrefix(body, "Parameter "):
				kv := strings.SplitN(strings.TrimPrefix(body, "Parameter "), ":", 2)
				if len(kv) == 2 {
					out.Parameters[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
				}
			}
			continue
		}
		if strings.TrimSpace(line) != "" {
			dataLines = append(dataLines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(dataLines) == 0 {
		return nil, fmt.Errorf("results file holds no data")
	}
	cr := csv.NewReader(strings.NewReader(strings.Join(dataLines, "\n")))
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	out.Columns = rows[0]
	for _, row := range rows[1:] {
		rec := make(map[string]float64, len(row))
		for i, field := range row {
			if i >= len(out.Columns) || field == "" {
				continue
			}
			f, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			rec[out.Columns[i]] = f
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}
