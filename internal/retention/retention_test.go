package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/raoulx24/retrificator/internal/config"
	"github.com/raoulx24/retrificator/internal/container"
	"github.com/raoulx24/retrificator/internal/fs"
	"github.com/raoulx24/retrificator/internal/metrics"
	"github.com/raoulx24/retrificator/internal/state"
	"github.com/raoulx24/retrificator/internal/tracker"
)

// fakeFS overrides deploy times and injects failures on top of the real filesystem.
type fakeFS struct {
	fs.FS
	deployed   map[string]time.Time
	failRename map[string]error
	failRemove map[string]error
	failWrite  error
}

func (f *fakeFS) Stat(path string) (fs.FileInfo, error) {
	info, err := f.FS.Stat(path)
	if err != nil {
		return info, err
	}
	if t, ok := f.deployed[path]; ok {
		info.BTime, info.ATime, info.MTime = t, t, t
	}
	return info, nil
}

func (f *fakeFS) Rename(ctx context.Context, oldPath, newPath string) error {
	if err, ok := f.failRename[oldPath]; ok {
		return err
	}
	return f.FS.Rename(ctx, oldPath, newPath)
}

func (f *fakeFS) Remove(path string) error {
	if err, ok := f.failRemove[path]; ok {
		return err
	}
	return f.FS.Remove(path)
}

func (f *fakeFS) WriteFileAtomic(ctx context.Context, path string, data []byte) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	return f.FS.WriteFileAtomic(ctx, path, data)
}

type fixture struct {
	t       *testing.T
	webapps string
	logs    string
	fs      *fakeFS
	store   *state.Store
	engine  *Engine
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Container.Root = filepath.Join(root, "tomcat")
	cfg.State.Root = filepath.Join(root, "state")

	f := &fixture{
		t:       t,
		webapps: cfg.Container.WebappsPath(),
		logs:    cfg.Container.LogsPath(),
		fs: &fakeFS{
			FS:         fs.New(),
			deployed:   map[string]time.Time{},
			failRename: map[string]error{},
			failRemove: map[string]error{},
		},
		now: time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, dir := range []string{f.webapps, f.logs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.store = state.NewStore(cfg.State.FilePath(), f.fs)
	f.engine = New(
		container.New(cfg.Container, f.fs),
		tracker.New(f.fs, nil, log),
		f.store,
		f.fs,
		log,
		metrics.New(prometheus.NewRegistry()),
	).WithClock(func() time.Time { return f.now })
	return f
}

// war creates a live package deployed at the given time.
func (f *fixture) war(name string, deployed time.Time) string {
	f.t.Helper()
	path := filepath.Join(f.webapps, name+".war")
	f.write(path, "live:"+name)
	f.fs.deployed[path] = deployed
	return path
}

func (f *fixture) retro(name, content string) string {
	f.t.Helper()
	path := filepath.Join(f.webapps, name+".war.retro")
	f.write(path, content)
	return path
}

func (f *fixture) dir(name string) {
	f.t.Helper()
	if err := os.MkdirAll(filepath.Join(f.webapps, name), 0o755); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) seed(access map[string]int64, logs ...string) {
	f.t.Helper()
	st := state.New()
	for k, v := range access {
		st.LastAccess[k] = v
	}
	for _, l := range logs {
		st.MarkProcessed(l)
	}
	if err := f.store.Save(context.Background(), st); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) state() *state.State {
	f.t.Helper()
	st, err := f.store.Load()
	if err != nil {
		f.t.Fatal(err)
	}
	return st
}

func (f *fixture) run(p Policy) Report {
	f.t.Helper()
	rep, err := f.engine.Run(context.Background(), p)
	if err != nil {
		f.t.Fatalf("Run: %v", err)
	}
	return rep
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func policy(accessAge, deployAge time.Duration, ignore ...string) Policy {
	p := DefaultPolicy()
	p.AccessAge = accessAge
	p.DeployAge = deployAge
	res, err := CompileIgnore(ignore)
	if err != nil {
		panic(err)
	}
	p.Ignore = res
	return p
}

func TestRun_StaleAccessIsArchived(t *testing.T) {
	f := newFixture(t)
	age := 48 * time.Hour
	accessed := f.now.Add(-age).Add(-time.Millisecond)
	war := f.war("foo", f.now)
	f.seed(map[string]int64{"foo": accessed.UnixMilli()})

	rep := f.run(policy(age, 0))

	if exists(war) {
		t.Fatal("expected foo.war to be renamed")
	}
	if got := readFile(t, war+".retro"); got != "live:foo" {
		t.Fatalf("unexpected archive content %q", got)
	}
	if _, ok := f.state().Latest("foo"); ok {
		t.Fatal("expected foo to be forgotten after archival")
	}
	if diff := cmp.Diff([]string{"foo"}, rep.Archived); diff != "" {
		t.Fatalf("archived mismatch (-want +got):\n%s", diff)
	}
	if !rep.StateSaved {
		t.Fatal("expected state to be saved")
	}
}

func TestRun_AccessAgeBoundary(t *testing.T) {
	f := newFixture(t)
	age := time.Hour
	war := f.war("edge", f.now)
	f.seed(map[string]int64{"edge": f.now.Add(-age).UnixMilli()})

	rep := f.run(policy(age, 0))

	if !exists(war) {
		t.Fatal("an access exactly at the threshold is not older and must protect")
	}
	if diff := cmp.Diff([]string{"edge"}, rep.Protected); diff != "" {
		t.Fatalf("protected mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_OrphanArchiveCleanup(t *testing.T) {
	f := newFixture(t)
	war := f.war("bar", f.now)
	retro := f.retro("bar", "old")
	f.seed(map[string]int64{"bar": 7}, "x_access_log.1")
	before := f.state()

	rep := f.run(DefaultPolicy())

	if exists(retro) {
		t.Fatal("expected bar.war.retro to be deleted")
	}
	if readFile(t, war) != "live:bar" {
		t.Fatal("bar.war must be untouched")
	}
	if diff := cmp.Diff([]string{"bar"}, rep.OrphansRemoved); diff != "" {
		t.Fatalf("orphans mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, f.state()); diff != "" {
		t.Fatalf("state changed (-before +after):\n%s", diff)
	}
}

func TestRun_OrphanCleanupFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.war("bar", f.now)
	retro := f.retro("bar", "old")
	f.fs.failRemove[retro] = errors.New("permission denied")

	rep := f.run(DefaultPolicy())

	if !exists(retro) {
		t.Fatal("expected archive to stay in place")
	}
	if len(rep.OrphansRemoved) != 0 {
		t.Fatalf("expected no orphans removed, got %v", rep.OrphansRemoved)
	}
}

func TestRun_IgnoredWebappIsNeverArchived(t *testing.T) {
	f := newFixture(t)
	long := 365 * 24 * time.Hour
	war := f.war("admin", f.now.Add(-long))
	other := f.war("administrator", f.now.Add(-long))
	f.seed(map[string]int64{"admin": 1, "administrator": 1})

	rep := f.run(policy(time.Hour, time.Hour, "^admin$"))

	if !exists(war) {
		t.Fatal("ignored webapp must not be archived")
	}
	if exists(other) {
		t.Fatal("pattern must match the whole name only")
	}
	if diff := cmp.Diff([]string{"administrator"}, rep.Archived); diff != "" {
		t.Fatalf("archived mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_WebappWithoutLivePackageIsNeverArchived(t *testing.T) {
	f := newFixture(t)
	retro := f.retro("old", "archived")
	f.dir("exploded")
	f.seed(map[string]int64{"old": 1, "exploded": 1})

	rep := f.run(policy(time.Hour, time.Hour))

	if len(rep.Archived) != 0 || len(rep.Failed) != 0 {
		t.Fatalf("expected nothing archived, got %+v", rep)
	}
	if readFile(t, retro) != "archived" {
		t.Fatal("archive-only webapp must be untouched")
	}
	if !exists(filepath.Join(f.webapps, "exploded")) {
		t.Fatal("exploded directory must be untouched")
	}
}

func TestRun_NoAccessEntryIsNotSelectedByAccessRule(t *testing.T) {
	f := newFixture(t)
	war := f.war("quiet", f.now.Add(-1000*time.Hour))

	f.run(policy(time.Hour, 0))
	if !exists(war) {
		t.Fatal("an app never seen in the logs must not be archived by access age")
	}

	rep := f.run(policy(time.Hour, 24*time.Hour))
	if exists(war) {
		t.Fatal("deploy age must still archive an app never seen in the logs")
	}
	if diff := cmp.Diff([]string{"quiet"}, rep.Archived); diff != "" {
		t.Fatalf("archived mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RecentAccessProtectsFromDeployAge(t *testing.T) {
	f := newFixture(t)
	war := f.war("busy", f.now.Add(-1000*time.Hour))
	f.seed(map[string]int64{"busy": f.now.Add(-time.Minute).UnixMilli()})

	rep := f.run(policy(time.Hour, 24*time.Hour))

	if !exists(war) {
		t.Fatal("recent access must protect from deploy age")
	}
	if diff := cmp.Diff([]string{"busy"}, rep.Protected); diff != "" {
		t.Fatalf("protected mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RecentDeployProtectsFromAccessAge(t *testing.T) {
	f := newFixture(t)
	war := f.war("fresh", f.now.Add(-time.Minute))
	f.seed(map[string]int64{"fresh": 1})

	f.run(policy(time.Hour, 24*time.Hour))

	if !exists(war) {
		t.Fatal("a recent deploy must protect from access age")
	}
}

func TestRun_DeployTimeIsLatestTimestamp(t *testing.T) {
	f := newFixture(t)
	war := f.war("app", time.Time{})
	delete(f.fs.deployed, war)

	old := f.now.Add(-1000 * time.Hour)
	if err := os.Chtimes(war, f.now.Add(-time.Minute), old); err != nil {
		t.Fatal(err)
	}

	f.run(policy(0, 24*time.Hour))
	if !exists(war) {
		t.Fatal("a recent access time must count as recent deploy")
	}
}

func TestRun_TracksAccessLogs(t *testing.T) {
	f := newFixture(t)
	staleWar := f.war("stale", f.now)
	busyWar := f.war("busy", f.now)
	f.dir("busy")

	logName := "localhost_access_log.2020-03-01.txt"
	lines := []string{
		`10.0.0.1 - - [01/Feb/2020:10:00:00 +0000] "GET /stale/index.jsp HTTP/1.1" 200 10`,
		`10.0.0.1 - - [01/Mar/2020:11:30:00 +0000] "GET /busy/api?x=1 HTTP/1.1" 200 10`,
		`this line is garbage`,
		`10.0.0.1 - - [01/Mar/2020:11:00:00 +0000] "GET /unknown HTTP/1.1" 404 10`,
	}
	f.write(filepath.Join(f.logs, logName), strings.Join(lines, "\n")+"\n")
	f.write(filepath.Join(f.logs, "catalina.out"), "not an access log\n")

	rep := f.run(policy(48*time.Hour, 0))

	if exists(staleWar) {
		t.Fatal("expected stale.war to be archived")
	}
	if !exists(busyWar) {
		t.Fatal("expected busy.war to stay")
	}
	if diff := cmp.Diff(tracker.Result{LogsRead: 1, Records: 3, ParseErrors: 1}, rep.Tracking); diff != "" {
		t.Fatalf("tracking mismatch (-want +got):\n%s", diff)
	}

	st := f.state()
	want := map[string]int64{
		"busy":    time.Date(2020, 3, 1, 11, 30, 0, 0, time.UTC).UnixMilli(),
		"unknown": time.Date(2020, 3, 1, 11, 0, 0, 0, time.UTC).UnixMilli(),
	}
	if diff := cmp.Diff(want, st.LastAccess); diff != "" {
		t.Fatalf("last access mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{logName}, st.SortedLogs()); diff != "" {
		t.Fatalf("processed logs mismatch (-want +got):\n%s", diff)
	}

	// the next pass prunes the unknown app and does not reread the log
	rep = f.run(policy(48*time.Hour, 0))
	if rep.Tracking.LogsRead != 0 {
		t.Fatalf("expected processed log to be skipped, read %d", rep.Tracking.LogsRead)
	}
	if diff := cmp.Diff([]string{"unknown"}, rep.PrunedState); diff != "" {
		t.Fatalf("pruned mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_PruneDisabledKeepsUnknownApps(t *testing.T) {
	f := newFixture(t)
	f.seed(map[string]int64{"gone": 5})

	p := DefaultPolicy()
	p.PruneStaleState = false
	f.run(p)

	if _, ok := f.state().Latest("gone"); !ok {
		t.Fatal("expected entry to survive with pruning disabled")
	}
}

func TestRun_RenameFailureLeavesStateAndContinues(t *testing.T) {
	f := newFixture(t)
	stuck := f.war("stuck", f.now)
	moved := f.war("moved", f.now)
	f.seed(map[string]int64{"stuck": 1, "moved": 1})
	f.fs.failRename[stuck] = errors.New("device busy")

	rep := f.run(policy(time.Hour, 0))

	if !exists(stuck) {
		t.Fatal("failed webapp must stay live")
	}
	if exists(moved) {
		t.Fatal("other webapps must still be archived")
	}
	if diff := cmp.Diff([]string{"stuck"}, rep.Failed); diff != "" {
		t.Fatalf("failed mismatch (-want +got):\n%s", diff)
	}
	st := f.state()
	if _, ok := st.Latest("stuck"); !ok {
		t.Fatal("failed webapp must keep its state entry")
	}
	if _, ok := st.Latest("moved"); ok {
		t.Fatal("archived webapp must lose its state entry")
	}
}

func TestRun_ReplacesExistingArchive(t *testing.T) {
	f := newFixture(t)
	war := f.war("app", f.now)
	retro := f.retro("app", "previous")
	f.seed(map[string]int64{"app": 1})

	p := policy(time.Hour, 0)
	p.CleanupOrphanArchives = false
	rep := f.run(p)

	if exists(war) {
		t.Fatal("expected live package to be archived")
	}
	if got := readFile(t, retro); got != "live:app" {
		t.Fatalf("expected archive to be replaced, got %q", got)
	}
	if diff := cmp.Diff([]string{"app"}, rep.Archived); diff != "" {
		t.Fatalf("archived mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_DryRunChangesNothing(t *testing.T) {
	f := newFixture(t)
	war := f.war("foo", f.now.Add(-1000*time.Hour))
	retro := f.retro("foo", "old")

	p := policy(0, time.Hour)
	p.DryRun = true
	rep := f.run(p)

	if !exists(war) || !exists(retro) {
		t.Fatal("dry run must not touch files")
	}
	if exists(f.store.Path()) {
		t.Fatal("dry run must not write state")
	}
	if diff := cmp.Diff([]string{"foo"}, rep.Archived); diff != "" {
		t.Fatalf("archived mismatch (-want +got):\n%s", diff)
	}
	if !rep.DryRun || rep.StateSaved {
		t.Fatalf("unexpected report flags %+v", rep)
	}
}

func TestRun_StateSaveFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.seed(map[string]int64{"kept": 1})
	f.war("kept", f.now)
	f.fs.failWrite = errors.New("disk full")

	_, err := f.engine.Run(context.Background(), policy(time.Hour, 0))
	if err == nil {
		t.Fatal("expected save error")
	}

	f.fs.failWrite = nil
	if _, ok := f.state().Latest("kept"); !ok {
		t.Fatal("previous state file must be intact")
	}
}

func TestRun_CorruptStateStartsEmpty(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(filepath.Dir(f.store.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	f.write(f.store.Path(), "{broken")
	f.war("foo", f.now)

	rep := f.run(policy(time.Hour, 0))
	if !rep.StateSaved {
		t.Fatal("expected a fresh state to be saved")
	}
	if len(f.state().LastAccess) != 0 {
		t.Fatal("expected empty state")
	}
}

func TestRun_MissingWebappsDirFails(t *testing.T) {
	f := newFixture(t)
	if err := os.RemoveAll(f.webapps); err != nil {
		t.Fatal(err)
	}

	if _, err := f.engine.Run(context.Background(), DefaultPolicy()); err == nil {
		t.Fatal("expected error when the webapps dir is missing")
	}
}

func TestRun_CanceledContextStillSavesState(t *testing.T) {
	f := newFixture(t)
	f.war("live", f.now)
	f.seed(map[string]int64{"live": f.now.UnixMilli(), "undeployed": 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := f.engine.Run(ctx, policy(48*time.Hour, 0))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.StateSaved {
		t.Fatal("expected state to be saved after cancellation")
	}
	if _, ok := f.state().Latest("undeployed"); ok {
		t.Fatal("expected pruned entry to be gone from the saved state")
	}
}

func TestCompileIgnore(t *testing.T) {
	p := policy(0, 0, "admin", "docs|examples", "host-.*")

	for name, want := range map[string]bool{
		"admin":         true,
		"administrator": false,
		"docs":          true,
		"examples":      true,
		"mydocs":        false,
		"host-manager":  true,
		"Admin":         false,
	} {
		if got := p.Ignored(name); got != want {
			t.Errorf("Ignored(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := CompileIgnore([]string{"("}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestPolicyFromConfig(t *testing.T) {
	cfg := config.Default().Retention
	p, err := PolicyFromConfig(cfg, []string{"^admin$"})
	if err != nil {
		t.Fatal(err)
	}
	if p.AccessAge != 48*time.Hour || p.DeployAge != 30*24*time.Hour {
		t.Fatalf("unexpected ages %v / %v", p.AccessAge, p.DeployAge)
	}
	if !p.CleanupOrphanArchives || !p.PruneStaleState {
		t.Fatal("expected cleanups enabled by default")
	}
	if !p.Ignored("admin") {
		t.Fatal("expected admin to be ignored")
	}
}
