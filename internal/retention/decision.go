package retention

import (
	"sort"

	"github.com/raoulx24/retrificator/internal/webapp"
)

// decisions collects rule verdicts. A protected application is never
// archived, whichever rule selected it.
type decisions struct {
	candidates map[string]webapp.Webapp
	protected  map[string]struct{}
}

func newDecisions() *decisions {
	return &decisions{
		candidates: map[string]webapp.Webapp{},
		protected:  map[string]struct{}{},
	}
}

func (d *decisions) archive(app webapp.Webapp) { d.candidates[app.Name] = app }

func (d *decisions) protect(name string) { d.protected[name] = struct{}{} }

func (d *decisions) isProtected(name string) bool {
	_, ok := d.protected[name]
	return ok
}

// selected returns the candidates that are not protected, sorted by name.
func (d *decisions) selected() []webapp.Webapp {
	var apps []webapp.Webapp
	for name, app := range d.candidates {
		if !d.isProtected(name) {
			apps = append(apps, app)
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps
}

func (d *decisions) protectedNames() []string {
	names := make([]string, 0, len(d.protected))
	for name := range d.protected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
