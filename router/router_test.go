package router

import (
	"fmt"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/muurk/nanohttp"
)

// tagged returns a handler whose response status identifies it
func tagged(tag int) nanohttp.Handler {
	return func(req *nanohttp.Request) *nanohttp.Response {
		return nanohttp.NewResponse(tag, nil)
	}
}

// resolve returns the tag of the matched handler, or 0
func resolve(r *Router, method, path string) (int, map[string]string) {
	params, handler, ok := r.Route(method, path)
	if !ok {
		return 0, nil
	}
	return handler(nanohttp.NewRequest(method, path)).StatusCode, params
}

func TestRouterRootAndSimplePaths(t *testing.T) {
	r := New()
	r.Register("GET", "/", tagged(200))
	r.Register("GET", "/a/b/c/d", tagged(201))
	r.Register("GET", "/a/b", tagged(202))

	tests := []struct {
		path string
		want int
	}{
		{"/", 200},
		{"", 200},
		{"/a/b/c/d", 201},
		{"/a/b", 202},
		{"/a/b/", 202},
		{"a/b", 202},
		{"/a/b?x=1", 202},
		{"/a", 0},
		{"/a/b/c", 0},
		{"/a/b/c/d/e", 0},
	}
	for _, tt := range tests {
		got, _ := resolve(r, "GET", tt.path)
		require.Equal(t, tt.want, got, "path %q", tt.path)
	}

	got, _ := resolve(r, "POST", "/a/b")
	require.Zero(t, got)
}

func TestRouterWildcard(t *testing.T) {
	r := New()
	r.Register("GET", "/a/*/c/d", tagged(200))

	for _, path := range []string{"/a/b/c/d", "/a/xxx/c/d"} {
		got, params := resolve(r, "GET", path)
		require.Equal(t, 200, got, path)
		require.Empty(t, params)
	}
	for _, path := range []string{"/a/c/d", "/a/b/c", "/a/b/c/d/e"} {
		got, _ := resolve(r, "GET", path)
		require.Zero(t, got, path)
	}
}

func TestRouterNamedVariables(t *testing.T) {
	r := New()
	r.Register("GET", "/a/:arg1/:arg2/b/c/d/:arg3", tagged(200))

	got, params := resolve(r, "GET", "/a/value1/value2/b/c/d/value3")
	require.Equal(t, 200, got)
	require.Equal(t, map[string]string{"arg1": "value1", "arg2": "value2", "arg3": "value3"}, params)

	got, _ = resolve(r, "GET", "/a/value1/value2/c/c/d/value3")
	require.Zero(t, got)
}

func TestRouterPathVariableZeroOrMore(t *testing.T) {
	r := New()
	r.Register("GET", "/a/**/e/f/g", tagged(200))

	got, _ := resolve(r, "GET", "/a/b/c/d/e/f/g")
	require.Equal(t, 200, got)

	// ** may consume no segment at all
	got, _ = resolve(r, "GET", "/a/e/f/g")
	require.Equal(t, 200, got)

	got, _ = resolve(r, "GET", "/a/b/c/d/e/f")
	require.Zero(t, got)
}

func TestRouterNamedPathVariable(t *testing.T) {
	r := New()
	r.Register("GET", "/files/::path", tagged(200))
	r.Register("GET", "/a/b/**", tagged(201))

	got, params := resolve(r, "GET", "/files/docs/2024/report%20final.pdf")
	require.Equal(t, 200, got)
	require.Equal(t, "docs/2024/report%20final.pdf", params["path"])

	got, params = resolve(r, "GET", "/files")
	require.Equal(t, 200, got)
	require.Equal(t, "", params["path"])

	for _, path := range []string{"/a/b", "/a/b/c", "/a/b/c/d/e/f/g"} {
		got, _ = resolve(r, "GET", path)
		require.Equal(t, 201, got, path)
	}
}

func TestRouterEmptyTail(t *testing.T) {
	r := New()
	r.Register("GET", "/a/b/", tagged(200))
	r.Register("GET", "/a/b/:var", tagged(201))

	got, params := resolve(r, "GET", "/a/b/value1")
	require.Equal(t, 201, got)
	require.Equal(t, "value1", params["var"])

	got, params = resolve(r, "GET", "/a/b/")
	require.Equal(t, 200, got)
	require.NotContains(t, params, "var")
}

func TestRouterVariableMatchesMissingTail(t *testing.T) {
	r := New()
	r.Register("GET", "/users/:id", tagged(200))

	got, params := resolve(r, "GET", "/users")
	require.Equal(t, 200, got)
	require.Equal(t, map[string]string{"id": ""}, params)
}

func TestRouterPercentEncoding(t *testing.T) {
	r := New()
	r.Register("GET", "/a/<>/^", tagged(200))
	r.Register("GET", "/b/:name", tagged(201))

	got, _ := resolve(r, "GET", "/a/%3C%3E/%5E")
	require.Equal(t, 200, got)

	got, params := resolve(r, "GET", "/b/hello%20world")
	require.Equal(t, 201, got)
	require.Equal(t, "hello world", params["name"])

	got, _ = resolve(r, "GET", "/b/%zz")
	require.Zero(t, got)
}

func TestRouterOverlappingRoutes(t *testing.T) {
	t.Run("literal and variable siblings", func(t *testing.T) {
		r := New()
		r.Register("GET", "a/b", tagged(200))
		r.Register("GET", "a/:id/c", tagged(201))

		got, params := resolve(r, "GET", "a/b")
		require.Equal(t, 200, got)
		require.Empty(t, params)

		got, params = resolve(r, "GET", "a/b/c")
		require.Equal(t, 201, got)
		require.Equal(t, "b", params["id"])

		got, params = resolve(r, "GET", "a/x/c")
		require.Equal(t, 201, got)
		require.Equal(t, "x", params["id"])
	})

	t.Run("shared variable prefix", func(t *testing.T) {
		r := New()
		r.Register("GET", "a/:id", tagged(200))
		r.Register("GET", "a/:id/c", tagged(201))

		got, params := resolve(r, "GET", "a/b")
		require.Equal(t, 200, got)
		require.Equal(t, "b", params["id"])

		got, params = resolve(r, "GET", "a/b/c")
		require.Equal(t, 201, got)
		require.Equal(t, "b", params["id"])
	})

	t.Run("trailing variants", func(t *testing.T) {
		r := New()
		r.Register("GET", "/a/:id", tagged(200))
		r.Register("GET", "/a", tagged(201))
		r.Register("GET", "/a/:id/b", tagged(202))

		got, _ := resolve(r, "GET", "/a")
		require.Equal(t, 201, got)

		got, params := resolve(r, "GET", "/a/1")
		require.Equal(t, 200, got)
		require.Equal(t, "1", params["id"])

		got, params = resolve(r, "GET", "/a/1/b")
		require.Equal(t, 202, got)
		require.Equal(t, "1", params["id"])
	})

	t.Run("backtracking from a literal branch", func(t *testing.T) {
		r := New()
		r.Register("GET", "/a/b/c/d/e", tagged(200))
		r.Register("GET", "/a/:id/f/g", tagged(201))

		got, _ := resolve(r, "GET", "/a/b/c/d/e")
		require.Equal(t, 200, got)

		got, params := resolve(r, "GET", "/a/b/f/g")
		require.Equal(t, 201, got)
		require.Equal(t, "b", params["id"])
	})
}

func TestRouterMethodFallback(t *testing.T) {
	r := New()
	r.Register(AnyMethod, "/ping", tagged(200))
	r.Register("POST", "/ping", tagged(201))

	got, _ := resolve(r, "GET", "/ping")
	require.Equal(t, 200, got)

	got, _ = resolve(r, "POST", "/ping")
	require.Equal(t, 201, got)
}

func TestRouterReRegistrationReplaces(t *testing.T) {
	r := New()
	r.Register("GET", "/x", tagged(200))
	r.Register("GET", "/x", tagged(201))

	got, _ := resolve(r, "GET", "/x")
	require.Equal(t, 201, got)
}

func TestRouterRoutes(t *testing.T) {
	r := New()
	r.Register("GET", "/", tagged(200))
	r.Register("GET", "/users/:id", tagged(200))
	r.Register("POST", "/users/:id", tagged(200))
	r.Register("GET", "/files/*", tagged(200))
	r.Register("GET", "/static/**", tagged(200))
	r.Register(AnyMethod, "/raw/::path", tagged(200))

	require.Equal(t, []string{
		"/",
		"/files/*",
		"/raw/::path",
		"/static/**",
		"/users/:id",
	}, r.Routes())

	byMethod := r.RoutesByMethod()
	require.Equal(t, []string{"/users/:id"}, byMethod["POST"])
	require.Equal(t, []string{"/raw/::path"}, byMethod["*"])
	require.Len(t, byMethod["GET"], 4)
}

func TestRouterMerge(t *testing.T) {
	api := New()
	api.Register("GET", "/users/:id", tagged(200))
	api.Register("GET", "/status", tagged(201))

	r := New()
	r.Register("GET", "/api/status", tagged(500))
	r.Register("GET", "/api/health", tagged(202))

	require.NoError(t, r.Merge(api, "/api"))

	got, params := resolve(r, "GET", "/api/users/7")
	require.Equal(t, 200, got)
	require.Equal(t, "7", params["id"])

	got, _ = resolve(r, "GET", "/api/status")
	require.Equal(t, 201, got)

	got, _ = resolve(r, "GET", "/api/health")
	require.Equal(t, 202, got)

	// the merged copy does not follow later changes to the source
	api.Register("GET", "/later", tagged(203))
	got, _ = resolve(r, "GET", "/api/later")
	require.Zero(t, got)
}

type fakeMatcher struct{ Matcher }

func TestRouterMergeIncompatible(t *testing.T) {
	r := New()
	err := r.Merge(fakeMatcher{}, "/x")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrIncompatibleRouter))

	require.Error(t, r.Merge(r, "/x"))
}

func TestRouterConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.Register("GET", fmt.Sprintf("/n/%d/:x", i), tagged(200))
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _, _ = r.Route("GET", fmt.Sprintf("/n/%d/v", i))
			_ = r.Routes()
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		got, params := resolve(r, "GET", fmt.Sprintf("/n/%d/v", i))
		require.Equal(t, 200, got)
		require.Equal(t, "v", params["x"])
	}
}

func TestRouterDeepPath(t *testing.T) {
	r := New()
	r.Register("GET", "/deep/**/end", tagged(200))

	path := "/deep"
	for i := 0; i < 500; i++ {
		path += "/x"
	}
	got, _ := resolve(r, "GET", path+"/end")
	require.Equal(t, 200, got)
}
