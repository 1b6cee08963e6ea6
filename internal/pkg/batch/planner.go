package batch

import (
	"fmt"
	"strings"

	"bitbucket.org/airenas/subtitler/internal/pkg/transcript"
)

//DefaultSize is the number of entries in one batch
const DefaultSize = 50

//Entry is a segment in job global numbering and time
type Entry struct {
	Index int
	Start float64
	End   float64
	Text  string
	// Chunk and Offset point to the source segment
	Chunk  int
	Offset int
}

//Batch is a group of consecutive entries translated in one call
type Batch struct {
	Chunk   int
	Offset  int
	Entries []Entry
	Text    string
}

//Key returns the batch position for logs
func (b *Batch) Key() string {
	return fmt.Sprintf("%d:%d", b.Chunk, b.Offset)
}

//Entries flattens chunks into globally numbered entries with offset corrected times
func Entries(chunks []*transcript.Chunk) []Entry {
	res := []Entry{}
	timeOffset, index := 0.0, 1
	for i, c := range chunks {
		if c == nil {
			continue
		}
		for k, s := range c.Segments {
			res = append(res, Entry{Index: index, Start: s.Start + timeOffset, End: s.End + timeOffset,
				Text: strings.TrimSpace(s.Text), Chunk: i, Offset: k})
			index++
		}
		// empty chunks still move the time
		timeOffset += c.Duration
	}
	return res
}

//Split groups entries into batches of size entries
func Split(entries []Entry, size int) []Batch {
	if size < 1 {
		size = DefaultSize
	}
	res := make([]Batch, 0, (len(entries)+size-1)/size)
	for from := 0; from < len(entries); from += size {
		to := from + size
		if to > len(entries) {
			to = len(entries)
		}
		e := entries[from:to]
		res = append(res, Batch{Chunk: e[0].Chunk, Offset: e[0].Offset, Entries: e, Text: Render(e)})
	}
	return res
}

//Plan converts ordered transcripts into the ordered batch sequence
func Plan(chunks []*transcript.Chunk, size int) []Batch {
	return Split(Entries(chunks), size)
}

//Render writes entries as subtitle blocks separated by an empty line
func Render(entries []Entry) string {
	blocks := make([]string, len(entries))
	for i, e := range entries {
		blocks[i] = fmt.Sprintf("%d\n%s --> %s\n%s", e.Index, FormatTimestamp(e.Start), FormatTimestamp(e.End), e.Text)
	}
	return strings.Join(blocks, "\n\n")
}

//Join assembles translated batch texts in the given order
func Join(texts []string) string {
	if len(texts) == 0 {
		return ""
	}
	return strings.Join(texts, "\n\n") + "\n"
}
