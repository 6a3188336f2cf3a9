package tracereader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/codes-sim/mpi-replay/internal/simerr"
)

// FileSource is the reference on-disk RawSource: one JSON object per line,
// matching RawCall's fields. It stands in for the scalatrace/dumpi binary
// readers the Non-goals exclude from this module (§1) — the binary formats
// are out of scope, but a concrete, openable per-rank trace file is not, so
// this is what --workload_file resolves to.
type FileSource struct {
	f   *os.File
	dec *bufio.Scanner
}

// OpenFileSource opens the per-rank trace file at path. Per §7's failure
// model, a missing file is fatal (CodeMissingTrace).
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, simerr.New("OpenFileSource", simerr.CodeMissingTrace, err.Error())
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &FileSource{f: f, dec: scanner}, nil
}

// Next decodes the next non-blank line as a RawCall.
func (s *FileSource) Next() (RawCall, bool, error) {
	for s.dec.Scan() {
		line := s.dec.Bytes()
		if len(line) == 0 {
			continue
		}
		var call RawCall
		if err := json.Unmarshal(line, &call); err != nil {
			return RawCall{}, false, simerr.New("FileSource.Next", simerr.CodeBadConfig, fmt.Sprintf("malformed trace record: %v", err))
		}
		return call, true, nil
	}
	if err := s.dec.Err(); err != nil && err != io.EOF {
		return RawCall{}, false, simerr.New("FileSource.Next", simerr.CodeBadConfig, err.Error())
	}
	return RawCall{}, false, nil
}

// Close releases the underlying file handle.
func (s *FileSource) Close() error {
	return s.f.Close()
}

// RankFilePath builds the "<prefix>NNNN.trace" per-rank path of §6 Inputs,
// zero-padding rank to width digits.
func RankFilePath(prefix string, rank int32, width int) string {
	return fmt.Sprintf("%s%0*d.trace", prefix, width, rank)
}
