package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/John-Robertt/mvbrowse/internal/app/browse"
	"github.com/John-Robertt/mvbrowse/internal/domain"
	"github.com/John-Robertt/mvbrowse/internal/query"
	"github.com/John-Robertt/mvbrowse/internal/render"
)

type listResponse[T any] struct {
	Items []T `json:"items"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Error     string `json:"error"`
}

// handlePage 渲染 HTML 页面：q 非空时走检索，否则按 region 菜单选择。
func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	region := r.URL.Query().Get("region")

	// 每个请求一份 DOM，失败请求不会带出别的请求渲染过的卡片。
	page, err := render.New(s.pageOpts)
	if err != nil {
		s.log.Error("page init failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var (
		out    string
		failed error
	)
	d := browse.NewDispatcher(s.svc, browse.PresenterFunc(func(res domain.Result[[]domain.Movie]) {
		failed = res.Err
		out, err = page.Render(res, render.Controls{Search: q, Region: region})
	}), s.log)

	dispatch(r, d, q, region)

	if err != nil {
		s.log.Error("render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(httpStatus(failed))
	_, _ = w.Write([]byte(out))
}

func (s *server) handleMovies(w http.ResponseWriter, r *http.Request) {
	var res domain.Result[[]domain.Movie]
	d := browse.NewDispatcher(s.svc, browse.PresenterFunc(func(got domain.Result[[]domain.Movie]) { res = got }), s.log)
	dispatch(r, d, r.URL.Query().Get("q"), r.URL.Query().Get("region"))
	writeResult(w, res)
}

func dispatch(r *http.Request, d *browse.Dispatcher, q, region string) {
	if strings.TrimSpace(q) != "" || strings.TrimSpace(region) == "" {
		d.SearchChanged(r.Context(), q)
		return
	}
	d.MenuSelected(r.Context(), region)
}

func (s *server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(chi.URLParam(r, "id"), domain.KindDetail, "movie_id")
	if err != nil {
		writeError(w, err)
		return
	}
	res := s.svc.Detail(r.Context(), id)
	if !res.OK() {
		writeError(w, res.Err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(res.Value)
}

func (s *server) handleCredits(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(chi.URLParam(r, "id"), domain.KindCredits, "movie_id")
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, s.svc.Credits(r.Context(), id))
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, &query.ParameterError{Kind: domain.Kind(chi.URLParam(r, "kind")), Param: "kind"})
		return
	}
	page, genres, err := s.listParams(r, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	region := domain.Region(r.URL.Query().Get("region"))
	writeResult(w, s.svc.MoviesByKind(r.Context(), kind, region, genres, page))
}

func (s *server) handleTV(w http.ResponseWriter, r *http.Request) {
	page, genres, err := s.listParams(r, domain.KindTV)
	if err != nil {
		writeError(w, err)
		return
	}
	region := domain.Region(r.URL.Query().Get("region"))
	writeResult(w, s.svc.TV(r.Context(), region, genres, page))
}

// listParams 解析 page（缺省为 1）与 genre（逗号分隔的 id；缺省用配置的默认 genre）。
func (s *server) listParams(r *http.Request, kind domain.Kind) (int, []domain.Genre, error) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		p, err := intParam(v, kind, "page")
		if err != nil {
			return 0, nil, err
		}
		page = p
	}

	v := r.URL.Query().Get("genre")
	if v == "" {
		return page, s.defaultGenres, nil
	}
	var genres []domain.Genre
	for _, part := range strings.Split(v, ",") {
		id, err := intParam(strings.TrimSpace(part), kind, "genre")
		if err != nil {
			return 0, nil, err
		}
		genres = append(genres, domain.Genre{ID: id})
	}
	return page, genres, nil
}

func intParam(v string, kind domain.Kind, name string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, &query.ParameterError{Kind: kind, Param: name}
	}
	return n, nil
}

func writeResult[T any](w http.ResponseWriter, res domain.Result[[]T]) {
	if !res.OK() {
		writeError(w, res.Err)
		return
	}
	items := res.Value
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, listResponse[T]{Items: items})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), errorResponse{ErrorCode: browse.ErrorCode(err), Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpStatus(err error) int {
	switch browse.ErrorCode(err) {
	case "":
		return http.StatusOK
	case browse.ErrCodeParameter:
		return http.StatusBadRequest
	case browse.ErrCodeNetwork, browse.ErrCodeDecode:
		return http.StatusBadGateway
	case browse.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
