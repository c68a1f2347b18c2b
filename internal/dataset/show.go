package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultShowRows is the number of rows Show prints when asked for fewer than one.
const DefaultShowRows = 20

const truncateWidth = 20

// Head reads up to n rows from r and reports whether more rows follow. The
// row peeked to decide that stays in r.
func Head(ctx context.Context, r *Reader, n int) ([]Row, bool, error) {
	rows := make([]Row, 0, n)
	for len(rows) <= n {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		rows = append(rows, row)
	}
	r.unread(rows[n])
	return rows[:n], true, nil
}

// Show prints rows as a boxed table. When truncate is set, cells longer than
// 20 characters are cut to 17 followed by "...". more adds the
// "only showing top N rows" footer.
func Show(w io.Writer, schema Schema, rows []Row, more, truncate bool) error {
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, schema.Names())
	for _, row := range rows {
		line := make([]string, len(schema.Fields))
		for i := range schema.Fields {
			line[i] = row.Text(schema, i)
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(schema.Fields))
	for i := range widths {
		widths[i] = 3
	}
	for _, line := range cells {
		for i, c := range line {
			if truncate {
				c = truncateCell(c)
				line[i] = c
			}
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	sep := separator(widths)
	sb.WriteString(sep)
	for li, line := range cells {
		sb.WriteByte('|')
		for i, c := range line {
			pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c))
			if truncate {
				sb.WriteString(pad + c)
			} else {
				sb.WriteString(c + pad)
			}
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
		if li == 0 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString(sep)

	if more {
		row := "rows"
		if len(rows) == 1 {
			row = "row"
		}
		fmt.Fprintf(&sb, "only showing top %d %s\n", len(rows), row)
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

func truncateCell(c string) string {
	if utf8.RuneCountInString(c) <= truncateWidth {
		return c
	}
	return string([]rune(c)[:truncateWidth-3]) + "..."
}

func separator(widths []int) string {
	var sb strings.Builder
	sb.WriteByte('+')
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w))
		sb.WriteByte('+')
	}
	sb.WriteByte('\n')
	return sb.String()
}
