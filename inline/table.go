package inline

import "strings"

// Table block delimiters. Rows between the markers split on '|'; the first
// row is the header row.
const (
	tableOpen  = "[table]"
	tableClose = "[/table]"
)

// resolveTables replaces every [table]...[/table] block in text with HTML
// table markup. An opening marker with no matching close is left untouched.
func resolveTables(text string, border bool) string {
	if !strings.Contains(text, tableOpen) {
		return text
	}

	lines := strings.Split(text, "\n")
	var out []string
	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != tableOpen {
			out = append(out, lines[i])
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == tableClose {
				end = j
				break
			}
		}
		if end < 0 {
			out = append(out, lines[i])
			continue
		}
		out = append(out, renderTable(lines[i+1:end], border))
		i = end
	}
	return strings.Join(out, "\n")
}

func renderTable(rows []string, border bool) string {
	var sb strings.Builder
	if border {
		sb.WriteString(`<table border="1">`)
	} else {
		sb.WriteString("<table>")
	}

	first := true
	for _, row := range rows {
		if strings.TrimSpace(row) == "" {
			continue
		}
		cells := splitCells(row)
		tag := "td"
		if first {
			sb.WriteString("<thead>")
			tag = "th"
		}
		sb.WriteString("<tr>")
		for _, cell := range cells {
			sb.WriteString("<" + tag + ">")
			sb.WriteString(escapeCell(cell))
			sb.WriteString("</" + tag + ">")
		}
		sb.WriteString("</tr>")
		if first {
			sb.WriteString("</thead><tbody>")
			first = false
		}
	}
	if !first {
		sb.WriteString("</tbody>")
	}
	sb.WriteString("</table>")
	return sb.String()
}

// splitCells splits a table row on '|', dropping empty edge cells produced
// by leading/trailing pipes.
func splitCells(row string) []string {
	parts := strings.Split(row, "|")
	if len(parts) > 1 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

var cellEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeCell(s string) string { return cellEscaper.Replace(s) }
