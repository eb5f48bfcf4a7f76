// Package ingest turns raw sequence datasets into populated tree leaves:
// FASTA parsing, k-mer decomposition, parallel per-dataset filter
// construction, and an optional SQLite catalog of what was ingested.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one FASTA entry: the header line without its leading '>' and
// the concatenated, uppercased sequence.
type Record struct {
	Header string
	Seq    string
}

// ReadFasta parses FASTA records from r. Sequence lines are concatenated
// and uppercased; blank lines are skipped. Sequence data before the first
// header is an error.
func ReadFasta(r io.Reader) ([]Record, error) {
	var (
		records []Record
		seq     strings.Builder
		header  string
		started bool
	)
	flush := func() {
		if started {
			records = append(records, Record{Header: header, Seq: seq.String()})
			seq.Reset()
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			header = strings.TrimSpace(line[1:])
			started = true
			continue
		}
		if !started {
			return nil, fmt.Errorf("fasta: line %d: sequence data before first header", lineno)
		}
		seq.WriteString(strings.ToUpper(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fasta: %w", err)
	}
	flush()
	return records, nil
}

// Kmers decomposes seq into its ordered k-mers. A sequence shorter than k
// yields none.
func Kmers(seq string, k int) []string {
	if k <= 0 || len(seq) < k {
		return nil
	}
	out := make([]string, 0, len(seq)-k+1)
	for i := 0; i+k <= len(seq); i++ {
		out = append(out, seq[i:i+k])
	}
	return out
}
