package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadIgnoreList reads application-name patterns, one per line. Lines are
// trimmed; blank lines and lines starting with '#' are skipped. A missing
// file is an empty list.
func ReadIgnoreList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore list: %w", err)
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		patterns = append(patterns, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore list: %w", err)
	}
	return patterns, nil
}
