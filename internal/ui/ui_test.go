package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBannerPlain(t *testing.T) {
	banner := NewBanner("nanohttpd", "listening", map[string]string{
		"Port":    "8080",
		"Address": "0.0.0.0",
	}, false)

	require.Equal(t, "NANOHTTPD\nlistening\nAddress: 0.0.0.0\nPort: 8080", banner.String())
}

func TestBannerStyled(t *testing.T) {
	banner := NewBanner("nanohttpd", "listening", map[string]string{"Port": "8080"}, true)
	out := banner.Render()
	require.Contains(t, out, "NANOHTTPD")
	require.Contains(t, out, "8080")
	require.Contains(t, out, "╭")
}

func TestRenderRoutesPlain(t *testing.T) {
	out := RenderRoutes(map[string][]string{
		"GET":  {"/", "/ping"},
		"POST": {"/echo"},
		"*":    {"/ws"},
	}, false)

	require.Equal(t, "*       /ws\nGET     /\nGET     /ping\nPOST    /echo\n", out)
}

func TestMarkers(t *testing.T) {
	require.Equal(t, "✓ done", Success("done", false))
	require.Equal(t, "✗ failed", Failure("failed", false))
}

func TestIsTerminal(t *testing.T) {
	require.False(t, IsTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	require.False(t, IsTerminal(f))
}
