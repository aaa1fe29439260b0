package pageclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const listingHTML = `
<html>
	<body>
		<div class="movie-card">
			<h3 class="movie-title">  First  </h3>
			<img src="/img/1.jpg">
			<a href="/movie/1">details</a>
		</div>
		<div class="movie-card">
			<h3 class="movie-title">Second</h3>
			<img>
			<a href="/movie/2">details</a>
		</div>
	</body>
</html>
`

func newSite(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(listingHTML))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/list", http.StatusFound)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// TestHTTPClient_QueryAll verifies elements come back in document order
func TestHTTPClient_QueryAll(t *testing.T) {
	server := newSite(t)
	client := NewHTTPClient(HTTPOptions{})
	defer client.Close()

	require.NoError(t, client.Load(context.Background(), server.URL+"/list"))
	require.NoError(t, client.WaitFor(context.Background(), ".movie-card", time.Second))

	cards, err := client.QueryAll(".movie-card")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	title, ok := cards[0].Query(".movie-title")
	require.True(t, ok)
	assert.Equal(t, "First", title.Text(), "text should be trimmed")

	img, ok := cards[0].Query("img")
	require.True(t, ok)
	src, ok := img.Attr("src")
	assert.True(t, ok)
	assert.Equal(t, "/img/1.jpg", src)

	img, ok = cards[1].Query("img")
	require.True(t, ok)
	_, ok = img.Attr("src")
	assert.False(t, ok, "missing attribute should report none")

	_, ok = cards[1].Query(".rating")
	assert.False(t, ok, "missing element should report none")
}

// TestHTTPClient_ElementsSurviveNavigation verifies snapshot elements stay
// readable after the client loads another page
func TestHTTPClient_ElementsSurviveNavigation(t *testing.T) {
	server := newSite(t)
	client := NewHTTPClient(HTTPOptions{})
	defer client.Close()

	require.NoError(t, client.Load(context.Background(), server.URL+"/list"))
	cards, err := client.QueryAll(".movie-card")
	require.NoError(t, err)

	require.NoError(t, client.Load(context.Background(), server.URL+"/moved"))

	title, ok := cards[1].Query(".movie-title")
	require.True(t, ok)
	assert.Equal(t, "Second", title.Text())
}

// TestHTTPClient_WaitForMissingSelector verifies ErrTimeout for absent
// selectors
func TestHTTPClient_WaitForMissingSelector(t *testing.T) {
	server := newSite(t)
	client := NewHTTPClient(HTTPOptions{})
	defer client.Close()

	require.NoError(t, client.Load(context.Background(), server.URL+"/list"))

	err := client.WaitFor(context.Background(), ".movie-details", time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
}

// TestHTTPClient_FollowsRedirects verifies URL reports the final address
func TestHTTPClient_FollowsRedirects(t *testing.T) {
	server := newSite(t)
	client := NewHTTPClient(HTTPOptions{})
	defer client.Close()

	require.NoError(t, client.Load(context.Background(), server.URL+"/moved"))
	assert.Equal(t, server.URL+"/list", client.URL())
}

// TestHTTPClient_StatusError verifies non-2xx responses fail the load
func TestHTTPClient_StatusError(t *testing.T) {
	server := newSite(t)
	client := NewHTTPClient(HTTPOptions{})
	defer client.Close()

	err := client.Load(context.Background(), server.URL+"/gone")
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusGone, statusErr.StatusCode)

	_, err = client.QueryAll(".movie-card")
	assert.ErrorIs(t, err, ErrNoDocument, "failed load should clear the previous page")
}

// TestHTTPClient_NoDocument verifies queries before Load fail
func TestHTTPClient_NoDocument(t *testing.T) {
	client := NewHTTPClient(HTTPOptions{})
	defer client.Close()

	_, err := client.QueryAll("a")
	assert.ErrorIs(t, err, ErrNoDocument)
	_, _, err = client.Query("a")
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.ErrorIs(t, client.WaitFor(context.Background(), "a", time.Second), ErrNoDocument)
}

// TestHTTPOpener_Close_NoGoroutineLeak verifies a session's client releases
// its connections
func TestHTTPOpener_Close_NoGoroutineLeak(t *testing.T) {
	server := newSite(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	client, err := HTTPOpener(HTTPOptions{Timeout: time.Second})(context.Background())
	require.NoError(t, err)
	require.NoError(t, client.Load(context.Background(), server.URL+"/list"))
	require.NoError(t, client.Close())
}

// TestBrowserClient_RendersPage exercises headless Chrome when one is
// installed
func TestBrowserClient_RendersPage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chrome binary found")
	}

	server := newSite(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewBrowserClient(ctx, DefaultBrowserOptions())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Load(ctx, server.URL+"/list"))
	require.NoError(t, client.WaitFor(ctx, ".movie-card", 5*time.Second))

	cards, err := client.QueryAll(".movie-card")
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	err = client.WaitFor(ctx, ".movie-details", 500*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}
