package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// document is the on-disk JSON layout.
type document struct {
	LogFilesProcessed []string         `json:"logFilesProcessed"`
	LatestAccessMap   map[string]int64 `json:"latestAccessMap"`
}

// Decode reads a State. Blank input yields an empty State; unknown fields
// are ignored.
func Decode(r io.Reader) (*State, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}

	st := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return st, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}

	for _, name := range doc.LogFilesProcessed {
		st.MarkProcessed(name)
	}
	for key, millis := range doc.LatestAccessMap {
		st.LastAccess[key] = millis
	}
	return st, nil
}

// Encode writes st as indented JSON with sorted log names.
func Encode(w io.Writer, st *State) error {
	doc := document{
		LogFilesProcessed: st.SortedLogs(),
		LatestAccessMap:   st.LastAccess,
	}
	if doc.LatestAccessMap == nil {
		doc.LatestAccessMap = map[string]int64{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	return nil
}
