package router

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/muurk/nanohttp"
)

// AnyMethod registers a route that matches every method. Method specific
// routes are tried first.
const AnyMethod = ""

// ErrIncompatibleRouter is returned when merging a Matcher that is not a *Router
var ErrIncompatibleRouter = errors.New("incompatible router implementation")

// Matcher is the routing table used by the server
type Matcher interface {
	// Register binds handler to method and path pattern, replacing any
	// previous handler for the same pair
	Register(method, path string, handler nanohttp.Handler)
	// Route resolves a request path to a handler and its path variables
	Route(method, path string) (map[string]string, nanohttp.Handler, bool)
	// Routes lists the registered patterns
	Routes() []string
	// Merge copies other's routes below prefix
	Merge(other Matcher, prefix string) error
}

// Router is a segment trie keyed by method
type Router struct {
	mu   sync.Mutex
	root map[string]*segment
}

var _ Matcher = (*Router)(nil)

// New creates an empty router
func New() *Router {
	return &Router{root: make(map[string]*segment)}
}

// split breaks a path into segments, dropping the query and empty segments
func split(path string) []string {
	path, _, _ = strings.Cut(path, "?")
	return lo.Filter(strings.Split(path, "/"), func(s string, _ int) bool {
		return s != ""
	})
}

// Register adds a route. Pattern segments may be literals, "*" or ":name"
// for one segment, "**" or "::name" for zero or more segments.
func (r *Router) Register(method, path string, handler nanohttp.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.root[method]
	if !ok {
		node = newSegment()
		r.root[method] = node
	}
	node.descend(split(path)).handler = handler
}

// Route finds the handler for a request. Path segments are percent-decoded
// before literal comparison.
func (r *Router) Route(method, path string) (map[string]string, nanohttp.Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	segments := split(path)
	if method != AnyMethod {
		if node, ok := r.root[method]; ok {
			if params, handler, found := node.match(segments); found {
				return params, handler, true
			}
		}
	}
	if node, ok := r.root[AnyMethod]; ok {
		return node.match(segments)
	}
	return nil, nil, false
}

// Routes returns every registered pattern once, sorted
func (r *Router) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []string
	for _, node := range r.root {
		all = node.patterns("", all)
	}
	all = lo.Uniq(all)
	sort.Strings(all)
	return all
}

// RoutesByMethod returns the sorted patterns per method. Routes registered
// for any method are listed under "*".
func (r *Router) RoutesByMethod() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	byMethod := make(map[string][]string, len(r.root))
	for method, node := range r.root {
		patterns := node.patterns("", nil)
		if len(patterns) == 0 {
			continue
		}
		sort.Strings(patterns)
		if method == AnyMethod {
			method = "*"
		}
		byMethod[method] = patterns
	}
	return byMethod
}

// Merge copies every route of other below prefix. Handlers from other replace
// existing handlers at the same position.
func (r *Router) Merge(other Matcher, prefix string) error {
	src, ok := other.(*Router)
	if !ok {
		return errors.Wrapf(ErrIncompatibleRouter, "cannot merge %T", other)
	}
	if src == r {
		return errors.New("cannot merge a router into itself")
	}

	// Snapshot the source first so both locks are never held together
	src.mu.Lock()
	snapshot := make(map[string]*segment, len(src.root))
	for method, node := range src.root {
		snapshot[method] = node.copy()
	}
	src.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	prefixSegments := split(prefix)
	for method, node := range snapshot {
		root, ok := r.root[method]
		if !ok {
			root = newSegment()
			r.root[method] = root
		}
		root.descend(prefixSegments).merge(node)
	}
	return nil
}
