// Package itinerary holds the tabular form of a driving route: one row per
// maneuver, with a fixed set of columns.
package itinerary

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Columns are the fixed column headers of an itinerary table, in order.
var Columns = []string{
	"Latitude",
	"Longitude",
	"Maneuver Instruction",
	"Distance to Maneuver",
	"Direction",
	"Street",
}

// Row is a single maneuver step.
type Row struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Instruction string  `json:"maneuver_instruction"`
	Distance    float64 `json:"distance_to_maneuver"`
	Direction   string  `json:"direction"`
	Street      string  `json:"street"`
}

// Record renders the row as strings in Columns order.
func (r Row) Record() []string {
	return []string{
		strconv.FormatFloat(r.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Longitude, 'f', -1, 64),
		r.Instruction,
		strconv.FormatFloat(r.Distance, 'f', -1, 64),
		r.Direction,
		r.Street,
	}
}

// Table is an ordered sequence of rows in provider leg/item order.
type Table struct {
	Rows []Row `json:"rows"`
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row at the end of the table
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// Records returns the header followed by every row as strings.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, t.Len()+1)
	records = append(records, append([]string(nil), Columns...))
	if t == nil {
		return records
	}
	for _, r := range t.Rows {
		records = append(records, r.Record())
	}
	return records
}

// WriteCSV writes the header and rows as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("writing itinerary csv: %w", err)
	}
	return nil
}

// jsonTable is the wire form used by WriteJSON and the MCP tool.
type jsonTable struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// MarshalJSON includes the column headers alongside the rows.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := []Row{}
	if t != nil && t.Rows != nil {
		rows = t.Rows
	}
	return json.Marshal(jsonTable{Columns: Columns, Rows: rows})
}

// WriteJSON writes the table as indented JSON.
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("writing itinerary json: %w", err)
	}
	return nil
}

// WriteJSONList writes several tables as one indented JSON array.
func WriteJSONList(w io.Writer, tables []*Table) error {
	if tables == nil {
		tables = []*Table{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tables); err != nil {
		return fmt.Errorf("writing itinerary json: %w", err)
	}
	return nil
}
