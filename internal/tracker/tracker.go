// Package tracker mines access logs that were not seen before and merges the
// latest access per application into the tracking state.
package tracker

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/raoulx24/retrificator/internal/accesslog"
	"github.com/raoulx24/retrificator/internal/fs"
	"github.com/raoulx24/retrificator/internal/state"
)

// Result summarizes one Update.
type Result struct {
	LogsPruned  int // processed names dropped because the file is gone
	LogsRead    int
	Records     int
	ParseErrors int
	ReadErrors  int
}

type Tracker struct {
	fs     fs.FS
	parser *accesslog.Parser
	log    *slog.Logger
}

func New(filesystem fs.FS, parser *accesslog.Parser, log *slog.Logger) *Tracker {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if parser == nil {
		parser = accesslog.NewParser(accesslog.DefaultLayout())
	}
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{fs: filesystem, parser: parser, log: log}
}

// Update merges every log in logs (full paths) whose base name is not yet
// processed into st, then marks it processed. Processed names of logs that
// are no longer present are forgotten first; their effect is already merged.
func (t *Tracker) Update(st *state.State, logs []string) Result {
	var res Result

	present := make(map[string]struct{}, len(logs))
	for _, path := range logs {
		present[filepath.Base(path)] = struct{}{}
	}
	res.LogsPruned = st.RetainLogs(present)

	for _, path := range logs {
		name := filepath.Base(path)
		if st.Processed(name) {
			continue
		}

		records, parseErrs, err := t.readLog(st, path)
		res.Records += records
		res.ParseErrors += parseErrs
		if err != nil {
			res.ReadErrors++
			t.log.Error("reading access log failed", "log", path, "error", err)
		}

		// a partially read log is still marked; replaying it would not add anything
		st.MarkProcessed(name)
		res.LogsRead++

		t.log.Debug("access log merged", "log", name, "records", records, "parse_errors", parseErrs)
	}

	return res
}

// maxLineBytes caps one access log line. Longer lines are skipped as
// malformed and reading resumes at the next line.
var maxLineBytes = 1024 * 1024

func (t *Tracker) readLog(st *state.State, path string) (records, parseErrs int, err error) {
	f, err := t.fs.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, maxLineBytes)
	for {
		raw, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			parseErrs++
			t.log.Warn("skipping oversized access log line", "log", path, "limit_bytes", maxLineBytes)
			if err := skipLine(r); err != nil {
				return records, parseErrs, eofOK(err)
			}
			continue
		}

		if line := strings.TrimRight(string(raw), "\r\n"); line != "" {
			if t.merge(st, path, line) != nil {
				parseErrs++
			} else {
				records++
			}
		}

		if err != nil {
			return records, parseErrs, eofOK(err)
		}
	}
}

// merge parses line and merges its access into st.
func (t *Tracker) merge(st *state.State, path, line string) error {
	rec, err := t.parser.Parse(line)
	if err != nil {
		t.log.Warn("skipping malformed access log line", "log", path, "error", err)
		return err
	}
	st.Merge(accesslog.ExtractKey(rec.URL), rec.UnixMilli())
	return nil
}

// skipLine discards the rest of the current line.
func skipLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

func eofOK(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
