package assistant

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// formatArgs renders a JSON payload as a Python dict literal, keeping the
// key order of the document: {"symbol":"AAPL"} becomes {'symbol': 'AAPL'}.
// This is the notation the transcript markers have always used.
func formatArgs(raw string) string {
	var sb strings.Builder
	writeValue(&sb, gjson.Parse(raw))
	return sb.String()
}

func writeValue(sb *strings.Builder, v gjson.Result) {
	switch v.Type {
	case gjson.Null:
		sb.WriteString("None")
	case gjson.True:
		sb.WriteString("True")
	case gjson.False:
		sb.WriteString("False")
	case gjson.Number:
		writeNumber(sb, v.Raw)
	case gjson.String:
		sb.WriteString(quote(v.Str))
	case gjson.JSON:
		if v.IsArray() {
			sb.WriteByte('[')
			for i, item := range v.Array() {
				if i > 0 {
					sb.WriteString(", ")
				}
				writeValue(sb, item)
			}
			sb.WriteByte(']')
			return
		}
		sb.WriteByte('{')
		first := true
		v.ForEach(func(key, value gjson.Result) bool {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(quote(key.Str))
			sb.WriteString(": ")
			writeValue(sb, value)
			return true
		})
		sb.WriteByte('}')
	}
}

// writeNumber keeps integers as written and prints floats the way Python does.
func writeNumber(sb *strings.Builder, raw string) {
	if !strings.ContainsAny(raw, ".eE") {
		sb.WriteString(raw)
		return
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		sb.WriteString(raw)
		return
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	sb.WriteString(s)
}

// quote mirrors Python's str repr: single quotes unless the text contains a
// single quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var sb strings.Builder
	sb.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(q):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}
