package log

import (
	"bytes"
	"math"
	"strconv"
	"unicode/utf8"
)

// The Append* helpers write JSON fragments directly into the event buffer.
// They avoid intermediate allocations so the hot logging path stays cheap.

// AppendBeginMarker inserts the object start character '{'.
func AppendBeginMarker(buf *bytes.Buffer) {
	buf.WriteByte('{')
}

// AppendEndMarker inserts the object end character '}'.
func AppendEndMarker(buf *bytes.Buffer) {
	buf.WriteByte('}')
}

// AppendLineBreak appends a newline, terminating one log entry.
func AppendLineBreak(buf *bytes.Buffer) {
	buf.WriteByte('\n')
}

// AppendKey appends a new key to the output JSON, inserting the separating
// comma when the buffer already holds a field.
func AppendKey(buf *bytes.Buffer, key string) {
	if buf.Len() >= 1 && buf.Bytes()[buf.Len()-1] != '{' {
		buf.WriteByte(',')
	}
	AppendString(buf, key)
	buf.WriteByte(':')
}

// AppendNil inserts a JSON null value.
func AppendNil(buf *bytes.Buffer) {
	buf.WriteString("null")
}

// AppendString appends a quoted, escaped JSON string.
func AppendString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' && c < utf8.RuneSelf {
			buf.WriteByte(c)
			i++
			continue
		}
		switch c {
		case '"', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
			i++
		case '\n':
			buf.WriteString(`\n`)
			i++
		case '\r':
			buf.WriteString(`\r`)
			i++
		case '\t':
			buf.WriteString(`\t`)
			i++
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				const hex = "0123456789abcdef"
				buf.WriteByte(hex[c>>4])
				buf.WriteByte(hex[c&0xF])
				i++
				continue
			}
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				buf.WriteString(`�`)
				i++
				continue
			}
			buf.WriteString(s[i : i+size])
			i += size
		}
	}
	buf.WriteByte('"')
}

// AppendInt64 appends a signed integer value.
func AppendInt64(buf *bytes.Buffer, v int64) {
	buf.WriteString(strconv.FormatInt(v, 10))
}

// AppendUint64 appends an unsigned integer value.
func AppendUint64(buf *bytes.Buffer, v uint64) {
	buf.WriteString(strconv.FormatUint(v, 10))
}

// AppendFloat64 appends a float value. Non-finite values are emitted as
// quoted strings since JSON has no representation for them.
func AppendFloat64(buf *bytes.Buffer, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		AppendString(buf, strconv.FormatFloat(v, 'g', -1, 64))
		return
	}
	buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
}

// AppendBool appends a boolean value.
func AppendBool(buf *bytes.Buffer, v bool) {
	buf.WriteString(strconv.FormatBool(v))
}
