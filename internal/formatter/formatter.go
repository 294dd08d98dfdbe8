// package formatter renders search results and preference sets for the command line (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/cinematch/internal/discovery"
	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// Formats lists every supported [Format].
var Formats = []Format{Text, CSV, Markdown, JSON}

// ParseFormat accepts a format name, case-insensitively, with "md" as an alias for Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: format %q (want one of text, csv, markdown, json)", shared.ErrInvalidFlag, s)
	}
}

// Render encodes rows in format f. The query is used as a heading where the format has one.
func Render(f Format, query string, rows []discovery.Row) ([]byte, error) {
	switch f {
	case CSV:
		return ResultsToCSV(rows)
	case Markdown:
		return ResultsToMarkdown(query, rows)
	case JSON:
		return ResultsToJSON(rows)
	case Text, "":
		return ResultsToText(rows)
	default:
		return nil, fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, f)
	}
}

// ResultsToCSV converts rows to CSV with columns: ID, Title, Release Date, Poster URL, Watched, Liked
func ResultsToCSV(rows []discovery.Row) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Release Date", "Poster URL", "Watched", "Liked"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Movie.ID),
			r.Movie.Title,
			r.Movie.ReleaseDate,
			r.PosterURL,
			membership(r, r.Watched),
			membership(r, r.Liked),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// membership is blank when there is no session to report on.
func membership(r discovery.Row, in bool) string {
	if !r.ShowToggles {
		return ""
	}
	return strconv.FormatBool(in)
}

// ResultsToMarkdown converts rows to a Markdown list with poster images
func ResultsToMarkdown(query string, rows []discovery.Row) ([]byte, error) {
	var buf bytes.Buffer

	if query != "" {
		buf.WriteString(fmt.Sprintf("# Results for %q\n\n", query))
	} else {
		buf.WriteString("# Results\n\n")
	}

	if len(rows) == 0 {
		buf.WriteString(discovery.MsgNoResults + "\n")
		return buf.Bytes(), nil
	}

	for i, r := range rows {
		buf.WriteString(fmt.Sprintf("%d. **%s**", i+1, r.Movie.Title))
		if r.Movie.ReleaseDate != "" {
			buf.WriteString(fmt.Sprintf(" (%s)", r.Movie.ReleaseDate))
		}
		if r.ShowToggles {
			buf.WriteString(" " + markers(r))
		}
		buf.WriteString("\n")
		if r.PosterURL != "" {
			buf.WriteString(fmt.Sprintf("   ![%s](%s)\n", r.Movie.Title, r.PosterURL))
		}
	}

	return buf.Bytes(), nil
}

// ResultsToText converts rows to plain text, one numbered line per movie
func ResultsToText(rows []discovery.Row) ([]byte, error) {
	var buf bytes.Buffer

	if len(rows) == 0 {
		buf.WriteString(discovery.MsgNoResults + "\n")
		return buf.Bytes(), nil
	}

	for i, r := range rows {
		line := fmt.Sprintf("%d. [%d] %s", i+1, r.Movie.ID, r.Movie.Title)
		if y := r.Movie.Year(); y != "" {
			line += fmt.Sprintf(" (%s)", y)
		}
		if r.ShowToggles {
			line += "  " + markers(r)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

func markers(r discovery.Row) string {
	watched, liked := "Mark as watched", "♡ Like"
	if r.Watched {
		watched = "✓ Watched"
	}
	if r.Liked {
		liked = "♥ Liked"
	}
	return watched + " / " + liked
}

type jsonRow struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date,omitempty"`
	PosterURL   string `json:"poster_url,omitempty"`
	Overview    string `json:"overview,omitempty"`
	Watched     *bool  `json:"watched,omitempty"`
	Liked       *bool  `json:"liked,omitempty"`
}

// ResultsToJSON converts rows to an indented JSON array. Membership fields are omitted without a session.
func ResultsToJSON(rows []discovery.Row) ([]byte, error) {
	out := make([]jsonRow, 0, len(rows))
	for _, r := range rows {
		jr := jsonRow{
			ID:          r.Movie.ID,
			Title:       r.Movie.Title,
			ReleaseDate: r.Movie.ReleaseDate,
			PosterURL:   r.PosterURL,
			Overview:    r.Movie.Overview,
		}
		if r.ShowToggles {
			watched, liked := r.Watched, r.Liked
			jr.Watched, jr.Liked = &watched, &liked
		}
		out = append(out, jr)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal results: %w", err)
	}
	return append(data, '\n'), nil
}

// PreferencesToText lists the ids in each set of p
func PreferencesToText(p *models.Preferences) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("User: %s\n", p.UserID))
	for _, l := range models.Lists {
		ids := p.Set(l).IDs()
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.Itoa(id)
		}
		buf.WriteString(fmt.Sprintf("%s (%d): %s\n", l.Label(), len(ids), strings.Join(parts, ", ")))
	}

	return buf.Bytes()
}

// Write sends data to the file at path, or to w when path is empty or "-".
func Write(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
