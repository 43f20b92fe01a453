// Package webapp models deployed web applications and reconciles raw
// directory listings into one record per application.
package webapp

import "strings"

const (
	// WarSuffix marks a live (deployable) application package.
	WarSuffix = ".war"
	// RetroSuffix is appended to a live package to archive it.
	RetroSuffix = ".retro"
	// RetroWarSuffix marks an archived application package.
	RetroWarSuffix = WarSuffix + RetroSuffix
)

// Webapp is a logical deployed application. Each path is empty when the
// artifact is absent; at least one of them is set.
type Webapp struct {
	Name     string
	War      string // live package
	RetroWar string // archived package
	Dir      string // exploded directory
}

// HasWar reports whether the application has a live package.
func (w Webapp) HasWar() bool { return w.War != "" }

// HasRetroWar reports whether the application has an archived package.
func (w Webapp) HasRetroWar() bool { return w.RetroWar != "" }

// DirOnly reports whether the application is only an exploded directory.
// Such applications are never archived.
func (w Webapp) DirOnly() bool { return w.Dir != "" && w.War == "" && w.RetroWar == "" }

// ArchivePath returns where the live package goes when archived: the known
// archive path if one exists, otherwise the live path with RetroSuffix.
func (w Webapp) ArchivePath() string {
	if w.RetroWar != "" {
		return w.RetroWar
	}
	return w.War + RetroSuffix
}

// Names returns the set of application names.
func Names(apps []Webapp) map[string]struct{} {
	names := make(map[string]struct{}, len(apps))
	for _, a := range apps {
		names[a.Name] = struct{}{}
	}
	return names
}

// trimSuffixFold strips suffix from name when name ends with it, ignoring case.
func trimSuffixFold(name, suffix string) (string, bool) {
	if len(name) < len(suffix) || !strings.EqualFold(name[len(name)-len(suffix):], suffix) {
		return name, false
	}
	return name[:len(name)-len(suffix)], true
}
