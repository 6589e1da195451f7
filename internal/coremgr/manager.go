// Package coremgr maintains the database of cores discovered in registered
// libraries and resolves VLNV queries against it: discovery, lookup, and
// fileset/parameter extraction. Dependency handling is a plain flatten over
// declared names; version solving is out of scope.
package coremgr

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dv-flow/dv-flow-libfusesoc/internal/corefile"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/ctxlog"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/fsutil"
	"github.com/dv-flow/dv-flow-libfusesoc/internal/vlnv"
)

// ErrCoreNotFound is returned when no registered core matches a query.
var ErrCoreNotFound = errors.New("core not found")

// resolveCacheSize bounds the query cache. Flows resolve a handful of cores
// repeatedly across configure/build/run, so a small cache is plenty.
const resolveCacheSize = 64

// Flags narrow fileset and parameter selection during extraction.
type Flags struct {
	Target string
	Tool   string
}

// entry pairs a registered core with its parsed identity.
type entry struct {
	id   vlnv.VLNV
	core *corefile.Core
}

// Manager is the core database. It is not safe for concurrent use; each
// task invocation builds its own manager over its own workspace.
type Manager struct {
	entries []entry
	byID    map[string]*corefile.Core
	cache   *lru.Cache[string, *corefile.Core]
}

// New creates an empty Manager.
func New() *Manager {
	cache, err := lru.New[string, *corefile.Core](resolveCacheSize)
	if err != nil {
		panic(err)
	}
	return &Manager{
		byID:  make(map[string]*corefile.Core),
		cache: cache,
	}
}

// AddLibrary walks path for core description files and registers every core
// found. Files that fail to parse are logged and skipped so one malformed
// description does not hide the rest of a library. Returns the number of
// cores registered.
func (m *Manager) AddLibrary(ctx context.Context, name, path string) (int, error) {
	logger := ctxlog.FromContext(ctx).With("library", name)

	paths, err := fsutil.FindFilesByExtension(path, ".core")
	if err != nil {
		return 0, fmt.Errorf("scanning library %q: %w", name, err)
	}

	added := 0
	for _, p := range paths {
		core, err := corefile.Parse(p)
		if err != nil {
			logger.Warn("Skipping unparsable core file.", "path", p, "error", err)
			continue
		}
		if err := m.register(core); err != nil {
			logger.Warn("Skipping core.", "path", p, "error", err)
			continue
		}
		added++
	}

	logger.Debug("Library scan complete.", "path", path, "cores", added)
	return added, nil
}

// register adds a parsed core to the database.
func (m *Manager) register(core *corefile.Core) error {
	id, err := vlnv.Parse(core.Name)
	if err != nil {
		return fmt.Errorf("core %q: %w", core.Name, err)
	}
	if _, exists := m.byID[id.String()]; exists {
		return fmt.Errorf("core %q already registered", id.String())
	}
	m.entries = append(m.entries, entry{id: id, core: core})
	m.byID[id.String()] = core
	m.cache.Purge()
	return nil
}

// Resolve finds the registered core matching query. Empty query fields act
// as wildcards; the first match in registration order wins. Results are
// cached per query string.
func (m *Manager) Resolve(query string) (*corefile.Core, error) {
	q, err := vlnv.Parse(query)
	if err != nil {
		return nil, err
	}

	if core, ok := m.cache.Get(query); ok {
		return core, nil
	}
	if core, ok := m.byID[q.String()]; ok {
		m.cache.Add(query, core)
		return core, nil
	}
	for _, e := range m.entries {
		if q.Matches(e.id) {
			m.cache.Add(query, e.core)
			return e.core, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCoreNotFound, query)
}
