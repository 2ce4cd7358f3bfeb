package sections

import "github.com/dgallion1/reportgest/internal/doctree"

// Materialize converts a table element into records. Column keys come from
// every th in the table; a row becomes a record only when its td count equals
// the header count. Cells pair with headers by position.
func Materialize(table *doctree.Node) Table {
	var headers []string
	for _, th := range table.FindAll("th") {
		headers = append(headers, th.TextContent())
	}

	out := make(Table, 0)
	if len(headers) == 0 {
		return out
	}
	for _, tr := range table.FindAll("tr") {
		cells := tr.FindAll("td")
		if len(cells) != len(headers) {
			continue
		}
		var rec Record
		for i, td := range cells {
			// Duplicate headers collapse into one field, last cell wins.
			rec.Set(headers[i], td.TextContent())
		}
		out = append(out, rec)
	}
	return out
}
