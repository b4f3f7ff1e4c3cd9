package pipeline

import (
	"iter"
	"strings"

	"nydb/internal"
)

type layoutField struct {
	label string
	set   func(*internal.Record, string)
}

// claimLayout is the field order of the claim report. Each label is followed by its
// value up to the end of the line; every value but the last is followed by one blank
// line. The address keeps one extra line.
var claimLayout = []layoutField{
	{label: "Number:\t", set: func(r *internal.Record, v string) { r.ClaimNumberRaw = v }},
	{label: "Reference:\t", set: func(r *internal.Record, v string) { r.CrossReference = v }},
	{label: "Name:\t", set: func(r *internal.Record, v string) { r.Name = v }},
	{label: "Date:\t", set: func(r *internal.Record, v string) { r.BirthDate = v }},
	{label: "Death:\t", set: func(r *internal.Record, v string) { r.DeathDate = v }},
	{label: "Sex:\t", set: func(r *internal.Record, v string) { r.Sex = v }},
	{label: "Address:\t", set: func(r *internal.Record, v string) { r.AddressRaw = v }},
}

// ExtractRecords yields one Record per non-overlapping occurrence of the claim layout in
// text. Values are returned as captured. Text that does not follow the layout yields
// nothing.
func ExtractRecords(text string) iter.Seq[internal.Record] {
	return func(yield func(internal.Record) bool) {
		first := claimLayout[0].label
		pos := 0
		for pos < len(text) {
			idx := strings.Index(text[pos:], first)
			if idx < 0 {
				return
			}
			start := pos + idx

			rec, end, ok := matchLayout(text, start)
			if !ok {
				pos = start + 1
				continue
			}
			if !yield(rec) {
				return
			}
			pos = end
		}
	}
}

// matchLayout parses every field of claimLayout starting at the first label at start.
// It returns the record and the offset just past the match.
func matchLayout(text string, start int) (internal.Record, int, bool) {
	var rec internal.Record
	cur := start + len(claimLayout[0].label)

	for i, field := range claimLayout {
		if i > 0 {
			line := text[cur:lineEnd(text, cur)]
			at := strings.LastIndex(line, field.label)
			if at < 0 {
				return internal.Record{}, 0, false
			}
			cur += at + len(field.label)
		}

		end := lineEnd(text, cur)
		if i == len(claimLayout)-1 {
			end = continuationEnd(text, end)
			field.set(&rec, text[cur:end])
			return rec, end, true
		}

		field.set(&rec, text[cur:end])
		if !strings.HasPrefix(text[end:], "\n\n") {
			return internal.Record{}, 0, false
		}
		cur = end + 2
	}
	return internal.Record{}, 0, false
}

func lineEnd(text string, from int) int {
	if i := strings.IndexByte(text[from:], '\n'); i >= 0 {
		return from + i
	}
	return len(text)
}

// continuationEnd extends a line ending at end over any run of newlines and the line
// that follows them.
func continuationEnd(text string, end int) int {
	next := end
	for next < len(text) && text[next] == '\n' {
		next++
	}
	if next == end {
		return end
	}
	return lineEnd(text, next)
}
