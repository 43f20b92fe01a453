package webapp

import (
	"path/filepath"
	"sort"

	"github.com/raoulx24/retrificator/internal/fs"
)

// Reconcile turns the entries of a webapps directory into one Webapp per
// distinct name. Directories become exploded apps, "*.war.retro" files become
// archived packages and remaining "*.war" files become live packages (suffixes
// match case-insensitively; names match exactly). Other entries are ignored.
// The result is sorted by name.
func Reconcile(dir string, entries []fs.Entry) []Webapp {
	dirs := map[string]string{}
	wars := map[string]string{}
	retroWars := map[string]string{}

	for _, e := range entries {
		full := filepath.Join(dir, e.Name)

		switch {
		case e.IsDir:
			dirs[e.Name] = full
		case !e.IsRegular:
			continue
		default:
			// the archive suffix ends with the live one, so it goes first
			if name, ok := trimSuffixFold(e.Name, RetroWarSuffix); ok {
				if name != "" {
					retroWars[name] = full
				}
			} else if name, ok := trimSuffixFold(e.Name, WarSuffix); ok {
				if name != "" {
					wars[name] = full
				}
			}
		}
	}

	names := make([]string, 0, len(dirs)+len(wars)+len(retroWars))
	seen := map[string]struct{}{}
	for _, pool := range []map[string]string{dirs, wars, retroWars} {
		for name := range pool {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)

	apps := make([]Webapp, 0, len(names))
	for _, name := range names {
		apps = append(apps, Webapp{
			Name:     name,
			War:      wars[name],
			RetroWar: retroWars[name],
			Dir:      dirs[name],
		})
	}
	return apps
}
