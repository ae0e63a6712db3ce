/*
Package csvcodec converts tracker entities to and from CSV.

PURPOSE:
  Three codec pairs (employees, KPIs, weekly entries) used for spreadsheet
  round-trips. Exports reference other entities by their human-facing
  identifier (employee code, KPI name) because internal ids are not
  portable between datasets. Imports resolve those identifiers back
  against the records the caller currently holds.

READING:
  - Columns are found by header name (trimmed, case-insensitive)
  - Row arity is not checked; a missing cell reads as empty
  - Blank and whitespace-only lines are skipped
  - An unquoted field is taken literally
  - A leading UTF-8 byte order mark is ignored

WRITING:
  Free-text columns are always quoted; other cells only when they contain
  a comma, quote or line break. Quotes are doubled. Numbers use the
  shortest form that parses back to the same value.

LENIENT IMPORT:
  By default a malformed number does not fail the import: floats become
  NaN and integers become 0 (after trying "4.0" as a float). Unresolved
  references become empty, or are dropped from lists. Strict() turns
  malformed numbers into a *ParseError and aborts the whole file.

  Every imported row gets a fresh id, and timestamps are stamped at import
  time.

SEE ALSO:
  - employees.go, kpis.go, weekly.go: Per-entity column layouts
  - tracker/tracker.go:               Import against the stores
*/
package csvcodec

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/warp/kpi-tracker/model"
)

// =============================================================================
// KINDS AND FILE NAMES
// =============================================================================

// Kind names an exportable entity collection.
type Kind string

const (
	KindEmployees     Kind = "employees"
	KindKPIs          Kind = "kpis"
	KindWeeklyEntries Kind = "weekly-entries"

	// KindTeamMembers is the older name for employee exports.
	KindTeamMembers Kind = "team-members"
)

// ParseKind accepts any kind name, including the team-members alias.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindEmployees, KindKPIs, KindWeeklyEntries, KindTeamMembers:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrUnknownKind, s)
}

// Canonical maps aliases to the kind they stand for.
func (k Kind) Canonical() Kind {
	if k == KindTeamMembers {
		return KindEmployees
	}
	return k
}

// FileName returns the download name for an export taken at the given time,
// e.g. "kpis-2024-03-11.csv".
func FileName(kind Kind, at time.Time) string {
	return fmt.Sprintf("%s-%s.csv", kind, at.Format("2006-01-02"))
}

// =============================================================================
// OPTIONS
// =============================================================================

type options struct {
	now    func() time.Time
	newID  func() string
	strict bool
}

// Option configures an import.
type Option func(*options)

// WithClock sets the clock used for import timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator sets the function that mints ids for imported rows.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// Strict makes malformed numeric cells fail the import.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, newID: model.NewID}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrMalformedNumber is wrapped by ParseError for numeric cells that do
// not parse.
var ErrMalformedNumber = errors.New("malformed number")

// ParseError reports a cell rejected by a strict import.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %q: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// READING
// =============================================================================

var bom = []byte{0xEF, 0xBB, 0xBF}

// row is one data record with header-based access.
type row struct {
	line   int
	fields []string
	cols   map[string]int
	opts   *options
}

func (r row) get(column string) string {
	i, ok := r.cols[normalizeHeader(column)]
	if !ok {
		return ""
	}
	return r.at(i)
}

// at returns the cell in position i, or "" for a short row.
func (r row) at(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// optional returns the cell, or "" when it holds only whitespace.
func (r row) optional(column string) string {
	v := r.get(column)
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return v
}

func (r row) floatCell(column string) (float64, error) {
	return r.parseFloat(column, r.get(column))
}

// floatAt is floatCell for a column addressed by position; column only
// names it in errors.
func (r row) floatAt(i int, column string) (float64, error) {
	return r.parseFloat(column, r.at(i))
}

func (r row) parseFloat(column, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err == nil {
		return v, nil
	}
	if r.opts.strict {
		return 0, r.malformed(column, raw)
	}
	return math.NaN(), nil
}

func (r row) intCell(column string) (int, error) {
	raw := r.get(column)
	s := strings.TrimSpace(raw)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f), nil
	}
	if r.opts.strict {
		return 0, r.malformed(column, raw)
	}
	return 0, nil
}

func (r row) malformed(column, value string) error {
	return &ParseError{Line: r.line, Column: column, Value: value, Err: ErrMalformedNumber}
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// readRows reads the header and every non-blank data row. header holds the
// raw header cells in order.
func readRows(r io.Reader, o *options) (header []string, rows []row, err error) {
	br := bufio.NewReader(r)
	if lead, _ := br.Peek(len(bom)); bytes.Equal(lead, bom) {
		br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	cols := make(map[string]int)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		if blank(fields) {
			continue
		}
		line, _ := cr.FieldPos(0)
		if header == nil {
			header = fields
			for i, h := range fields {
				if _, dup := cols[normalizeHeader(h)]; !dup {
					cols[normalizeHeader(h)] = i
				}
			}
			continue
		}
		rows = append(rows, row{line: line, fields: fields, cols: cols, opts: o})
	}
	return header, rows, nil
}

// blank reports a line holding nothing but whitespace. A row of empty
// cells such as ",," is not blank and is read as a record.
func blank(fields []string) bool {
	return len(fields) == 1 && strings.TrimSpace(fields[0]) == ""
}

// =============================================================================
// WRITING
// =============================================================================

// cell is one output field. Quoted cells are always wrapped in quotes.
type cell struct {
	value  string
	quoted bool
}

func plain(s string) cell  { return cell{value: s} }
func quoted(s string) cell { return cell{value: s, quoted: true} }

func number(v float64) cell {
	return plain(strconv.FormatFloat(v, 'f', -1, 64))
}

func integer(v int) cell {
	return plain(strconv.Itoa(v))
}

type writer struct {
	w   *bufio.Writer
	err error
}

func newWriter(w io.Writer) *writer {
	return &writer{w: bufio.NewWriter(w)}
}

func (w *writer) header(names ...string) {
	cells := make([]cell, len(names))
	for i, n := range names {
		cells[i] = plain(n)
	}
	w.row(cells...)
}

func (w *writer) row(cells ...cell) {
	if w.err != nil {
		return
	}
	for i, c := range cells {
		if i > 0 {
			w.w.WriteByte(',')
		}
		w.w.WriteString(encodeField(c.value, c.quoted))
	}
	_, w.err = w.w.WriteString("\n")
}

func (w *writer) flush() error {
	if w.err != nil {
		return fmt.Errorf("write csv: %w", w.err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func encodeField(s string, force bool) string {
	if !force && !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// =============================================================================
// REFERENCE RESOLUTION
// =============================================================================

// employeeIndex resolves between internal ids and employee codes.
type employeeIndex struct {
	byID   map[string]model.Employee
	byCode map[string]model.Employee
}

func indexEmployees(employees []model.Employee) employeeIndex {
	idx := employeeIndex{
		byID:   make(map[string]model.Employee, len(employees)),
		byCode: make(map[string]model.Employee, len(employees)),
	}
	for _, e := range employees {
		idx.byID[e.ID] = e
		// first match wins, as with a linear search
		if _, dup := idx.byCode[e.EmployeeID]; !dup && e.EmployeeID != "" {
			idx.byCode[e.EmployeeID] = e
		}
	}
	return idx
}

// code returns the employee code for an internal id, or "".
func (idx employeeIndex) code(id string) string {
	return idx.byID[id].EmployeeID
}

// id returns the internal id for an employee code, or "".
func (idx employeeIndex) id(code string) string {
	return idx.byCode[strings.TrimSpace(code)].ID
}
