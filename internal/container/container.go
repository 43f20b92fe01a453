// Package container gives a view of a Tomcat installation: its deployed
// applications and its access logs.
package container

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/raoulx24/retrificator/internal/config"
	"github.com/raoulx24/retrificator/internal/fs"
	"github.com/raoulx24/retrificator/internal/webapp"
)

type Container struct {
	webappsDir string
	logsDir    string
	marker     string
	fs         fs.FS
}

func New(cfg config.ContainerConfig, filesystem fs.FS) *Container {
	if filesystem == nil {
		filesystem = fs.New()
	}
	return &Container{
		webappsDir: cfg.WebappsPath(),
		logsDir:    cfg.LogsPath(),
		marker:     cfg.AccessLogMarker,
		fs:         filesystem,
	}
}

func (c *Container) WebappsDir() string { return c.webappsDir }
func (c *Container) LogsDir() string    { return c.logsDir }

// Webapps lists the deployed applications.
func (c *Container) Webapps() ([]webapp.Webapp, error) {
	entries, err := c.fs.ReadDir(c.webappsDir)
	if err != nil {
		return nil, fmt.Errorf("reading webapps dir: %w", err)
	}
	return webapp.Reconcile(c.webappsDir, entries), nil
}

// AccessLogs lists access log files, sorted by name. A missing logs
// directory yields no logs.
func (c *Container) AccessLogs() ([]string, error) {
	entries, err := c.fs.ReadDir(c.logsDir)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading logs dir: %w", err)
	}

	var logs []string
	for _, e := range entries {
		if e.IsRegular && IsAccessLog(e.Name, c.marker) {
			logs = append(logs, filepath.Join(c.logsDir, e.Name))
		}
	}
	sort.Strings(logs)
	return logs, nil
}

// IsAccessLog reports whether a file name carries the access log marker.
func IsAccessLog(name, marker string) bool {
	return marker != "" && strings.Contains(name, marker)
}
