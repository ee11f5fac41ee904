package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/mvbrowse/internal/app/browse"
	"github.com/John-Robertt/mvbrowse/internal/catalog"
	"github.com/John-Robertt/mvbrowse/internal/config"
	"github.com/John-Robertt/mvbrowse/internal/domain"
	"github.com/John-Robertt/mvbrowse/internal/metrics"
	"github.com/John-Robertt/mvbrowse/internal/render"
)

func fakeCatalog(failUS bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /3/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("with_origin_country") {
		case "KR":
			_, _ = w.Write([]byte(`{"results":[{"id":1,"title":"A","poster_path":"/a.jpg","popularity":5},{"id":2,"title":"B","popularity":9}]}`))
		case "US":
			if failUS {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"results":[{"id":3,"title":"C","popularity":7}]}`))
		default:
			_, _ = w.Write([]byte(`{"results":[]}`))
		}
	})
	mux.HandleFunc("GET /3/movie/upcoming", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":8,"title":"Soon","release_date":""}]}`))
	})
	mux.HandleFunc("GET /3/discover/tv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"id":9,"name":"Show"}]}`))
	})
	mux.HandleFunc("GET /3/movie/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":5,"title":"Detail"}`))
	})
	mux.HandleFunc("GET /3/movie/{id}/credits", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cast":[{"id":100,"name":"X","character":"Y"}]}`))
	})
	mux.HandleFunc("GET /3/person/{id}/images", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"profiles":[{"file_path":"/x.jpg"}]}`))
	})
	return mux
}

func newTestServer(t *testing.T, failUS bool) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(fakeCatalog(failUS))
	t.Cleanup(upstream.Close)

	cfg := config.Catalog{
		BaseURL:        upstream.URL + "/3",
		APIKey:         "secret",
		Language:       "ko-KR",
		Regions:        []domain.Region{"KR", "US"},
		DefaultGenres:  []domain.Genre{{ID: 18, Name: "Drama"}},
		ExcludedGenres: []int{99},
		JapanGenreID:   16,
		RequestTimeout: 2 * time.Second,
		Paths:          config.DefaultPaths(),
	}
	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	f := catalog.New(upstream.Client(), catalog.Options{Timeout: cfg.RequestTimeout, Metrics: m})
	h := New(Options{
		Service:       browse.NewService(cfg, f, nil),
		Page:          render.Options{ImageBaseURL: "https://img.test/w500", Regions: cfg.Regions},
		DefaultGenres: cfg.DefaultGenres,
		Metrics:       m,
		Gatherer:      reg,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

type moviesBody struct {
	Items     []domain.Movie `json:"items"`
	ErrorCode string         `json:"error_code"`
	Error     string         `json:"error"`
}

func decodeMovies(t *testing.T, body string) moviesBody {
	t.Helper()
	var mb moviesBody
	require.NoError(t, json.Unmarshal([]byte(body), &mb), body)
	return mb
}

func movieIDs(ms []domain.Movie) []int {
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, false)
	code, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
}

func TestAPIMovies_AllRegions(t *testing.T) {
	srv := newTestServer(t, false)

	code, body := get(t, srv, "/api/movies")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, []int{2, 3, 1}, movieIDs(decodeMovies(t, body).Items))

	code, body = get(t, srv, "/api/movies?q=c")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, []int{3}, movieIDs(decodeMovies(t, body).Items))
}

func TestAPIMovies_Region(t *testing.T) {
	srv := newTestServer(t, false)

	code, body := get(t, srv, "/api/movies?region=kr")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, []int{1, 2}, movieIDs(decodeMovies(t, body).Items))

	code, body = get(t, srv, "/api/movies?region=XX")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, browse.ErrCodeParameter, decodeMovies(t, body).ErrorCode)
}

func TestAPIMovies_BatchFailure(t *testing.T) {
	srv := newTestServer(t, true)

	code, body := get(t, srv, "/api/movies")
	assert.Equal(t, http.StatusBadGateway, code)
	mb := decodeMovies(t, body)
	assert.Equal(t, browse.ErrCodeNetwork, mb.ErrorCode)
	assert.Empty(t, mb.Items)
	assert.NotContains(t, body, "secret")
}

func TestAPIDetail(t *testing.T) {
	srv := newTestServer(t, false)

	code, body := get(t, srv, "/api/movies/5")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"id":5,"title":"Detail"}`, body)

	code, body = get(t, srv, "/api/movies/abc")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, browse.ErrCodeParameter)
}

func TestAPICredits(t *testing.T) {
	srv := newTestServer(t, false)

	code, body := get(t, srv, "/api/movies/5/credits")
	require.Equal(t, http.StatusOK, code, body)
	var got struct {
		Items []domain.Actor `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "/x.jpg", got.Items[0].ProfilePath)
}

func TestAPIList(t *testing.T) {
	srv := newTestServer(t, false)

	code, body := get(t, srv, "/api/list/upcoming")
	require.Equal(t, http.StatusOK, code, body)
	items := decodeMovies(t, body).Items
	require.Len(t, items, 1)
	assert.Equal(t, domain.SentinelReleaseDate, items[0].ReleaseDate)

	code, _ = get(t, srv, "/api/list/genres?region=US&genre=18")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get(t, srv, "/api/list/nope")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get(t, srv, "/api/list/detail")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = get(t, srv, "/api/list/upcoming?page=zero")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAPITV(t *testing.T) {
	srv := newTestServer(t, false)

	code, body := get(t, srv, "/api/tv?region=KR")
	require.Equal(t, http.StatusOK, code, body)
	items := decodeMovies(t, body).Items
	require.Len(t, items, 1)
	assert.Equal(t, "Show", items[0].Title)

	code, _ = get(t, srv, "/api/tv")
	assert.Equal(t, http.StatusBadRequest, code, "缺少 region")
}

func TestPage(t *testing.T) {
	srv := newTestServer(t, false)

	code, body := get(t, srv, "/?region=KR")
	require.Equal(t, http.StatusOK, code)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("#movieList .movie-card").Length())
	src, _ := doc.Find("#movieList img").First().Attr("src")
	assert.Equal(t, "https://img.test/w500/a.jpg", src)
}

func TestPage_FailureShowsStatus(t *testing.T) {
	srv := newTestServer(t, true)

	code, body := get(t, srv, "/")
	assert.Equal(t, http.StatusBadGateway, code)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find("#movieList .movie-card").Length())
	assert.Contains(t, doc.Find("#status").Text(), browse.ErrCodeNetwork)
}

func TestPage_FailureDoesNotLeakEarlierCards(t *testing.T) {
	srv := newTestServer(t, true)

	code, body := get(t, srv, "/?region=KR")
	require.Equal(t, http.StatusOK, code)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, 2, doc.Find("#movieList .movie-card").Length())

	code, body = get(t, srv, "/?q=zzz")
	assert.Equal(t, http.StatusBadGateway, code)
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find(".movie-card").Length())
	assert.Contains(t, doc.Find("#status").Text(), browse.ErrCodeNetwork)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	_, _ = get(t, srv, "/api/movies")
	code, body := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `mvbrowse_http_requests_total{route="/api/movies",status="200"} 1`)
	assert.Contains(t, body, "mvbrowse_catalog_requests_total")
}
