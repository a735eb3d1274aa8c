package verifier

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/alfredjeanlab/proofgraph/internal/model"
)

// Result is the outcome of one query, as streamed by the verifier.
type Result struct {
	Query   int          `json:"query"`
	Outcome model.Status `json:"outcome"`
	Witness string       `json:"witness,omitempty"`
}

// ParseResult decodes and validates one JSONL record.
func ParseResult(line []byte) (Result, error) {
	var r Result
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return Result{}, fmt.Errorf("decode result: %w", err)
	}
	if r.Query <= 0 {
		return Result{}, fmt.Errorf("result: query sequence must be positive, got %d", r.Query)
	}
	if !r.Outcome.IsValid() {
		return Result{}, fmt.Errorf("result for query %d: invalid outcome %q", r.Query, r.Outcome)
	}
	return r, nil
}

// ReadResults decodes every record of a JSONL stream. Blank lines are
// skipped; the first malformed record stops the read.
func ReadResults(r io.Reader) ([]Result, error) {
	var out []Result
	sc := newScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		res, err := ParseResult(line)
		if err != nil {
			return out, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, res)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("read results: %w", err)
	}
	return out, nil
}

// maxLine bounds a single record; witnesses may be inlined.
const maxLine = 4 << 20

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	return sc
}
