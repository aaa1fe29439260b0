package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pevans/moviescraper/movie"
	"github.com/pevans/moviescraper/session"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.SetOutputMirror(w)
	return t
}

// printSummary prints the movies a session collected and its counts.
func printSummary(w io.Writer, result *session.Result, output string) {
	records := result.Records()
	printMovies(w, records)
	fmt.Fprintf(w, "Run %s: %d page(s), %d movie(s), %d skipped, written to %s\n",
		result.RunID, result.Pages, len(records), len(result.Failures), output)
}

// printMovies prints records as a table. Rating and director columns are
// added when any record carries extended details.
func printMovies(w io.Writer, records []movie.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No movies to display.")
		return
	}

	extended := false
	for _, rec := range records {
		if rec.Details != nil {
			extended = true
			break
		}
	}

	t := newTable(w)
	header := table.Row{"#", "Title", "Year", "Genre"}
	if extended {
		header = append(header, "Rating", "Director")
	}
	t.AppendHeader(header)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 48},
		{Number: 4, WidthMax: 32},
	})

	for i, rec := range records {
		row := table.Row{i + 1, rec.Title, rec.Year, strings.Join(rec.Genre, ", ")}
		if extended {
			rating, director := "", ""
			if rec.Details != nil {
				rating, director = rec.Rating, rec.Director
			}
			row = append(row, rating, director)
		}
		t.AppendRow(row)
	}
	t.Render()
}
