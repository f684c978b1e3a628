package extractor

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned for PDFs without an extractable text layer.
var ErrNoText = errors.New("no extractable text")

// ReadPDF returns the text of each page, one visual row per line. Rows are
// read with the library's row grouping and fall back to grouping text
// runs by baseline when that yields nothing.
func ReadPDF(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader failed on %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := pageRows(page)
		if text == "" {
			text = pageRuns(page)
		}
		pages = append(pages, text)
	}

	if strings.TrimSpace(strings.Join(pages, "")) == "" {
		return nil, fmt.Errorf("%w in %s", ErrNoText, path)
	}
	return pages, nil
}

func pageRows(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		words := make([]string, 0, len(row.Content))
		for _, word := range row.Content {
			words = append(words, word.S)
		}
		if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// columnGap is the horizontal distance, in points, that separates columns.
const columnGap = 15

func pageRuns(page pdf.Page) string {
	type run struct {
		s string
		x float64
	}
	byRow := make(map[int][]run)
	for _, t := range page.Content().Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		y := int(math.Round(t.Y))
		byRow[y] = append(byRow[y], run{s: t.S, x: t.X})
	}

	ys := make([]int, 0, len(byRow))
	for y := range byRow {
		ys = append(ys, y)
	}
	// PDF y grows upwards.
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	lines := make([]string, 0, len(ys))
	for _, y := range ys {
		runs := byRow[y]
		sort.Slice(runs, func(a, b int) bool { return runs[a].x < runs[b].x })

		var b strings.Builder
		for i, r := range runs {
			if i > 0 && r.x-runs[i-1].x > columnGap {
				b.WriteString("  ")
			}
			b.WriteString(r.s)
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
