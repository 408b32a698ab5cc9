package fasta

// Package fasta parses FASTA-formatted nucleotide sequences from uploads.
// Parsing is deliberately conservative: headers start with '>', sequence
// lines are concatenated, blank lines are skipped, and records with empty
// sequences are dropped.

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"unicode"

	"ednaapi/internal/model"
)

// maxLine allows very long single-line sequences (64 MiB).
const maxLine = 64 * 1024 * 1024

// Parse reads FASTA records from r and returns them in input order.
// Gzip-compressed input is detected by magic bytes and decompressed
// transparently. Records whose sequence is empty after normalization are
// dropped; records without a header id keep an empty SequenceID for the
// caller to fill.
func Parse(r io.Reader) ([]model.SequenceRecord, error) {
	br := bufio.NewReader(r)

	// Detect gzip by magic number (1F 8B).
	if sig, err := br.Peek(2); err == nil && sig[0] == 0x1f && sig[1] == 0x8b {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("fasta gzip: %w", err)
		}
		defer gr.Close()
		return scan(gr)
	}

	return scan(br)
}

func scan(r io.Reader) ([]model.SequenceRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		records []model.SequenceRecord
		id      string
		seq     []byte
	)

	flush := func() {
		if len(seq) > 0 {
			records = append(records, model.SequenceRecord{
				SequenceID: id,
				Sequence:   string(seq),
			})
		}
		seq = nil
	}

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			// Sequence lines before any header become an id-less record.
			flush()
			id = headerID(line[1:])
			continue
		}
		seq = append(seq, normalizeLine(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fasta scan: %w", err)
	}
	flush()
	return records, nil
}

// headerID returns the first whitespace-delimited token of a header line.
func headerID(hdr []byte) string {
	hdr = bytes.TrimSpace(hdr)
	if i := bytes.IndexAny(hdr, " \t"); i >= 0 {
		return string(hdr[:i])
	}
	return string(hdr)
}

// normalizeLine uppercases sequence characters and strips embedded whitespace.
func normalizeLine(line []byte) []byte {
	out := make([]byte, 0, len(line))
	for _, b := range line {
		if unicode.IsSpace(rune(b)) {
			continue
		}
		if 'a' <= b && b <= 'z' {
			b -= 'a' - 'A'
		}
		out = append(out, b)
	}
	return out
}

// iupac holds the allowed IUPAC DNA codes, including ambiguity codes.
var iupac = map[byte]bool{
	'A': true, 'C': true, 'G': true, 'T': true, 'U': true,
	'R': true, 'Y': true, 'S': true, 'W': true, 'K': true, 'M': true,
	'B': true, 'D': true, 'H': true, 'V': true, 'N': true, '-': true,
}

// CountInvalid reports how many characters of seq fall outside the IUPAC DNA
// alphabet. Invalid characters are tolerated downstream; callers use the
// count for QC-style reporting only.
func CountInvalid(seq string) int {
	n := 0
	for i := 0; i < len(seq); i++ {
		b := seq[i]
		if 'a' <= b && b <= 'z' {
			b -= 'a' - 'A'
		}
		if !iupac[b] {
			n++
		}
	}
	return n
}
