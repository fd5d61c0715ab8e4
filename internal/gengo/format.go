package gengo

import "strings"

// maxDocLineWidth is the column past which a doc comment line breaks at its
// next space.
const maxDocLineWidth = 80

// WrapDocComment reformats docs (plain text, no leading "//" or "/*") into
// one or more "// "-prefixed lines. A line breaks at the first space after
// it has passed maxDocLineWidth columns, so a line can run past that width
// by the rest of the word in progress. Passing indent puts a tab instead
// of a space after the "//" of every line, for doc comments nested inside
// a struct or interface body.
func WrapDocComment(docs string, indent bool) string {
	if docs == "" {
		return ""
	}
	pad := byte(' ')
	if indent {
		pad = '\t'
	}

	var out strings.Builder
	col := 0
	startLine := func() {
		out.WriteString("//")
		col = 2
	}
	startLine()
	for _, r := range docs {
		switch r {
		case '\n':
			out.WriteByte('\n')
			col = 0
			startLine()
			continue
		case ' ':
			if col == 2 {
				continue // drop leading spaces on a fresh comment line
			}
			if col > maxDocLineWidth {
				out.WriteByte('\n')
				startLine()
				continue
			}
		default:
			if col == 2 {
				out.WriteByte(pad)
				col++
			}
		}
		out.WriteRune(r)
		col++
	}
	out.WriteByte('\n')
	return out.String()
}
