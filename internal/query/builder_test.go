package query

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/mvbrowse/internal/config"
	"github.com/John-Robertt/mvbrowse/internal/domain"
)

func testCatalog() config.Catalog {
	return config.Catalog{
		BaseURL:        "https://catalog.test/3",
		APIKey:         "secret",
		Language:       "ko-KR",
		Regions:        []domain.Region{"KR", "JP", "US"},
		DefaultGenres:  []domain.Genre{{ID: 18, Name: "Drama"}},
		ExcludedGenres: []int{99, 10770},
		JapanGenreID:   16,
		RequestTimeout: time.Second,
		Paths: map[string]string{
			config.PathTopRated:      "/movie/top_rated",
			config.PathUpcoming:      "/movie/upcoming",
			config.PathDiscoverMovie: "/discover/movie",
			config.PathDiscoverTV:    "/discover/tv",
			config.PathDetail:        "/movie/{movie_id}",
			config.PathCredits:       "/movie/{movie_id}/credits",
			config.PathPersonImages:  "/person/{actor_id}/images",
		},
	}
}

var drama = []domain.Genre{{ID: 18, Name: "Drama"}}

func parse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestBuild_MissingRequiredParams(t *testing.T) {
	b := NewBuilder(testCatalog())

	cases := []struct {
		kind  domain.Kind
		p     Params
		param string
	}{
		{domain.KindTopRated, Params{}, "region"},
		{domain.KindUpcoming, Params{}, "page"},
		{domain.KindGenres, Params{Region: "KR", Page: 1}, "genres"},
		{domain.KindGenres, Params{Genres: drama, Page: 1}, "region"},
		{domain.KindGenres, Params{Genres: drama, Region: "KR"}, "page"},
		{domain.KindDetail, Params{}, "movie_id"},
		{domain.KindByCountry, Params{Genres: drama}, "region"},
		{domain.KindByCountry, Params{Region: "KR"}, "genres"},
		{domain.KindCredits, Params{MovieID: -1}, "movie_id"},
		{domain.KindActorImages, Params{}, "actor_id"},
		{domain.KindAllRegions, Params{}, "genres"},
		{domain.KindAllRegions, Params{Genres: []domain.Genre{{ID: 0}}}, "genres"},
		{domain.KindTV, Params{Genres: drama}, "region"},
		{domain.KindTV, Params{Region: "US"}, "genres"},
		{domain.Kind("nope"), Params{}, "kind"},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind)+"/"+tc.param, func(t *testing.T) {
			urls, err := b.Build(tc.kind, tc.p)
			assert.Nil(t, urls)

			var pe *ParameterError
			require.True(t, errors.As(err, &pe), "期望 ParameterError，实际 %v", err)
			assert.Equal(t, tc.param, pe.Param)
			assert.Equal(t, tc.kind, pe.Kind)
		})
	}
}

func TestBuild_EveryURLCarriesCredentialAndLanguage(t *testing.T) {
	b := NewBuilder(testCatalog())

	full := Params{Region: "KR", Genres: drama, Page: 2, MovieID: 7, ActorID: 9}
	for _, k := range domain.Kinds() {
		urls, err := b.Build(k, full)
		require.NoError(t, err, "kind=%s", k)
		require.NotEmpty(t, urls)
		for _, raw := range urls {
			q := parse(t, raw).Query()
			assert.Equal(t, "secret", q.Get("api_key"), "kind=%s url=%s", k, raw)
			assert.Equal(t, "ko-KR", q.Get("language"), "kind=%s url=%s", k, raw)
		}
	}
}

func TestBuild_PathTemplates(t *testing.T) {
	b := NewBuilder(testCatalog())

	u, err := b.BuildOne(domain.KindDetail, Params{MovieID: 42})
	require.NoError(t, err)
	assert.Equal(t, "/3/movie/42", parse(t, u).Path)

	u, err = b.BuildOne(domain.KindCredits, Params{MovieID: 42})
	require.NoError(t, err)
	assert.Equal(t, "/3/movie/42/credits", parse(t, u).Path)

	u, err = b.BuildOne(domain.KindActorImages, Params{ActorID: 5})
	require.NoError(t, err)
	assert.Equal(t, "/3/person/5/images", parse(t, u).Path)

	u, err = b.BuildOne(domain.KindUpcoming, Params{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, "3", parse(t, u).Query().Get("page"))
}

func TestBuild_GenresUsesFirstGenreOnly(t *testing.T) {
	b := NewBuilder(testCatalog())

	u, err := b.BuildOne(domain.KindGenres, Params{
		Region: "KR",
		Genres: []domain.Genre{{ID: 28}, {ID: 35}},
		Page:   1,
	})
	require.NoError(t, err)

	q := parse(t, u).Query()
	assert.Equal(t, "/3/discover/movie", parse(t, u).Path)
	assert.Equal(t, "28", q.Get("with_genres"))
	assert.Equal(t, "KR", q.Get("with_origin_country"))
	assert.Equal(t, "99,10770", q.Get("without_genres"))
	assert.Equal(t, SortPopularityDesc, q.Get("sort_by"))
}

func TestBuild_ByCountryJapanSubstitutesGenre(t *testing.T) {
	b := NewBuilder(testCatalog())

	for _, genres := range [][]domain.Genre{drama, {{ID: 28}}, {{ID: 16}}} {
		u, err := b.BuildOne(domain.KindByCountry, Params{Region: domain.RegionJapan, Genres: genres})
		require.NoError(t, err)
		assert.Equal(t, "16", parse(t, u).Query().Get("with_genres"))
	}

	u, err := b.BuildOne(domain.KindByCountry, Params{Region: "KR", Genres: []domain.Genre{{ID: 28}}})
	require.NoError(t, err)
	q := parse(t, u).Query()
	assert.Equal(t, "28", q.Get("with_genres"))
	assert.Equal(t, "1", q.Get("page"), "未提供 page 时默认第 1 页")
	assert.Equal(t, "99,10770", q.Get("without_genres"))
}

func TestBuild_AllRegionsFansOutInConfiguredOrder(t *testing.T) {
	b := NewBuilder(testCatalog())

	urls, err := b.Build(domain.KindAllRegions, Params{Genres: drama})
	require.NoError(t, err)
	require.Len(t, urls, 3)

	wantRegion := []string{"KR", "JP", "US"}
	wantGenre := []string{"18", "16", "18"}
	for i, raw := range urls {
		q := parse(t, raw).Query()
		assert.Equal(t, wantRegion[i], q.Get("with_origin_country"))
		assert.Equal(t, wantGenre[i], q.Get("with_genres"))
		assert.Equal(t, SortVoteCountDesc, q.Get("sort_by"))
		assert.Equal(t, "99,10770", q.Get("without_genres"))
	}

	_, err = b.BuildOne(domain.KindAllRegions, Params{Genres: drama})
	assert.Error(t, err)
}

func TestBuild_TVSortDependsOnRegion(t *testing.T) {
	b := NewBuilder(testCatalog())

	u, err := b.BuildOne(domain.KindTV, Params{Region: domain.RegionUnitedStates, Genres: drama})
	require.NoError(t, err)
	assert.Equal(t, "/3/discover/tv", parse(t, u).Path)
	assert.Equal(t, SortVoteCountDesc, parse(t, u).Query().Get("sort_by"))

	u, err = b.BuildOne(domain.KindTV, Params{Region: "KR", Genres: drama, Page: 4})
	require.NoError(t, err)
	q := parse(t, u).Query()
	assert.Equal(t, SortPopularityDesc, q.Get("sort_by"))
	assert.Equal(t, "4", q.Get("page"))
	assert.Equal(t, "18", q.Get("with_genres"))
}

func TestBuild_TopRatedHasNoGenreFilter(t *testing.T) {
	b := NewBuilder(testCatalog())

	u, err := b.BuildOne(domain.KindTopRated, Params{Region: "KR"})
	require.NoError(t, err)
	q := parse(t, u).Query()
	assert.Equal(t, "KR", q.Get("with_origin_country"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Empty(t, q.Get("with_genres"))
	assert.Empty(t, q.Get("without_genres"))
}

func TestBuild_MissingPathTemplate(t *testing.T) {
	cfg := testCatalog()
	delete(cfg.Paths, config.PathDetail)

	_, err := NewBuilder(cfg).Build(domain.KindDetail, Params{MovieID: 1})
	assert.Error(t, err)
}
