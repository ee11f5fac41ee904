package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/mvbrowse/internal/domain"
)

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingCredential 表示最终没有得到 API key（文件/.env/环境变量都没有）。
	ErrCodeMissingCredential = "config_missing_credential"
)

const (
	// FileName 是默认配置文件名（位于 cwd）。
	FileName = "mvbrowse.yaml"
	// EnvFileName 是可选的密钥文件（位于 cwd）。
	EnvFileName = ".env"
	// EnvAPIKey 覆盖配置文件中的 catalog.api_key。
	EnvAPIKey = "TMDB_API_KEY"
)

const (
	DefaultBaseURL        = "https://api.themoviedb.org/3"
	DefaultLanguage       = "ko-KR"
	DefaultImageBaseURL   = "https://image.tmdb.org/t/p/w500"
	DefaultJapanGenreID   = 16 // Animation
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultListen         = "127.0.0.1:8080"
)

// 路径模板的 key。模板中的 {movie_id} / {actor_id} 由 query 包替换。
const (
	PathTopRated      = "top_rated"
	PathUpcoming      = "upcoming"
	PathDiscoverMovie = "discover_movie"
	PathDiscoverTV    = "discover_tv"
	PathDetail        = "detail"
	PathCredits       = "credits"
	PathPersonImages  = "person_images"
)

// DefaultPaths 返回默认的路径模板（每次返回新 map）。
func DefaultPaths() map[string]string {
	return map[string]string{
		PathTopRated:      "/movie/top_rated",
		PathUpcoming:      "/movie/upcoming",
		PathDiscoverMovie: "/discover/movie",
		PathDiscoverTV:    "/discover/tv",
		PathDetail:        "/movie/{movie_id}",
		PathCredits:       "/movie/{movie_id}/credits",
		PathPersonImages:  "/person/{actor_id}/images",
	}
}

func defaultRegions() []string { return []string{"KR", "US", "JP", "CN", "FR"} }

func defaultGenres() []domain.Genre { return []domain.Genre{{ID: 18, Name: "Drama"}} }

// 纪录片 / 电视电影：发现类查询默认排除。
func defaultExcludedGenres() []int { return []int{99, 10770} }

// CLIArgs 是 CLI 能覆盖的配置项，保留“是否显式指定”的信息以实现覆盖优先级。
type CLIArgs struct {
	ConfigPath string

	LogLevel    string
	LogLevelSet bool

	Listen    string
	ListenSet bool
}

// FileConfig 对应 mvbrowse.yaml 的解析结构。
type FileConfig struct {
	Catalog      CatalogFile  `yaml:"catalog"`
	ImageBaseURL string       `yaml:"image_base_url"`
	Proxy        *ProxyConfig `yaml:"proxy"`
	LogLevel     string       `yaml:"log_level"`
	Listen       string       `yaml:"listen"`
}

type CatalogFile struct {
	BaseURL        string            `yaml:"base_url"`
	APIKey         string            `yaml:"api_key"`
	Language       string            `yaml:"language"`
	Regions        []string          `yaml:"regions"`
	DefaultGenres  []GenreFile       `yaml:"default_genres"`
	ExcludedGenres []int             `yaml:"excluded_genres"`
	JapanGenreID   int               `yaml:"japan_genre_id"`
	RequestTimeout string            `yaml:"request_timeout"`
	Paths          map[string]string `yaml:"paths"`
}

type GenreFile struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type ProxyConfig struct {
	URL string `yaml:"url"`
}

// Catalog 是 QueryBuilder / Fetcher 直接消费的进程级配置（启动时构造一次，之后只读）。
type Catalog struct {
	BaseURL  string
	APIKey   string
	Language string

	// Regions 是合法 region 的闭集，同时决定 allRegions 扇出的顺序。
	Regions []domain.Region

	// DefaultGenres 用于“全部地区”和按国家浏览（只使用第一个元素）。
	DefaultGenres  []domain.Genre
	ExcludedGenres []int
	JapanGenreID   int

	RequestTimeout time.Duration

	// Paths 是 path 模板（key 见 Path* 常量）。
	Paths map[string]string
}

// EffectiveConfig 是合并并校验后的最终配置。
type EffectiveConfig struct {
	Catalog Catalog

	ImageBaseURL string
	ProxyURL     string
	LogLevel     string
	Listen       string

	// Source 是实际读取的配置文件路径（未读取时为空）。
	Source string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingCredential:
		return fmt.Sprintf("%s：缺少 API key（配置 catalog.api_key 或环境变量 %s）", e.Code, EnvAPIKey)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，与 .env / 环境变量 / CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在
// 2) 否则尝试 <cwd>/mvbrowse.yaml（可选，不存在则全部走默认值）
//
// API key 优先级：环境变量 TMDB_API_KEY > <cwd>/.env > catalog.api_key
// log_level / listen：CLI > config > 默认
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(cwdAbs, FileName)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	envPath := filepath.Join(cwdAbs, EnvFileName)
	dotenv, err := readDotEnv(envPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
	}

	eff, err := merge(cli, fc, dotenv, cfgPath)
	if err != nil {
		return EffectiveConfig{}, err
	}
	if exists {
		eff.Source = cfgPath
	}
	return eff, nil
}

func merge(cli CLIArgs, fc FileConfig, dotenv map[string]string, cfgPath string) (EffectiveConfig, error) {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf(format, args...)}
	}

	apiKey := strings.TrimSpace(fc.Catalog.APIKey)
	if v := strings.TrimSpace(dotenv[EnvAPIKey]); v != "" {
		apiKey = v
	}
	if v, ok := os.LookupEnv(EnvAPIKey); ok && strings.TrimSpace(v) != "" {
		apiKey = strings.TrimSpace(v)
	}
	if apiKey == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingCredential, Path: cfgPath}
	}

	baseURL := strings.TrimRight(orDefault(fc.Catalog.BaseURL, DefaultBaseURL), "/")
	if err := validateHTTPURL(baseURL); err != nil {
		return EffectiveConfig{}, invalid("catalog.base_url 无效：%v", err)
	}
	imageBaseURL := strings.TrimRight(orDefault(fc.ImageBaseURL, DefaultImageBaseURL), "/")
	if err := validateHTTPURL(imageBaseURL); err != nil {
		return EffectiveConfig{}, invalid("image_base_url 无效：%v", err)
	}

	rawRegions := fc.Catalog.Regions
	if len(rawRegions) == 0 {
		rawRegions = defaultRegions()
	}
	regions := make([]domain.Region, 0, len(rawRegions))
	seen := make(map[domain.Region]struct{}, len(rawRegions))
	for _, s := range rawRegions {
		r := domain.Region(strings.ToUpper(strings.TrimSpace(s)))
		if len(r) != 2 {
			return EffectiveConfig{}, invalid("catalog.regions 含非法代码：%q", s)
		}
		if _, dup := seen[r]; dup {
			return EffectiveConfig{}, invalid("catalog.regions 重复：%q", s)
		}
		seen[r] = struct{}{}
		regions = append(regions, r)
	}

	genres := defaultGenres()
	if len(fc.Catalog.DefaultGenres) > 0 {
		genres = make([]domain.Genre, 0, len(fc.Catalog.DefaultGenres))
		for _, g := range fc.Catalog.DefaultGenres {
			if g.ID <= 0 {
				return EffectiveConfig{}, invalid("catalog.default_genres 的 id 必须为正数：%d", g.ID)
			}
			genres = append(genres, domain.Genre{ID: g.ID, Name: g.Name})
		}
	}

	excluded := defaultExcludedGenres()
	if fc.Catalog.ExcludedGenres != nil {
		excluded = append([]int(nil), fc.Catalog.ExcludedGenres...)
	}

	japanGenre := fc.Catalog.JapanGenreID
	if japanGenre == 0 {
		japanGenre = DefaultJapanGenreID
	}
	if japanGenre < 0 {
		return EffectiveConfig{}, invalid("catalog.japan_genre_id 必须为正数：%d", japanGenre)
	}

	timeout := DefaultRequestTimeout
	if s := strings.TrimSpace(fc.Catalog.RequestTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return EffectiveConfig{}, invalid("catalog.request_timeout 无效：%q", s)
		}
		timeout = d
	}

	paths := DefaultPaths()
	for k, v := range fc.Catalog.Paths {
		if _, ok := paths[k]; !ok {
			return EffectiveConfig{}, invalid("catalog.paths 含未知 key：%q", k)
		}
		v = strings.TrimSpace(v)
		if !strings.HasPrefix(v, "/") {
			return EffectiveConfig{}, invalid("catalog.paths.%s 必须以 / 开头：%q", k, v)
		}
		paths[k] = v
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, invalid("proxy.url 无效：%w", err)
		}
	}

	logLevel := orDefault(fc.LogLevel, DefaultLogLevel)
	if cli.LogLevelSet {
		logLevel = cli.LogLevel
	}
	if hclog.LevelFromString(logLevel) == hclog.NoLevel {
		return EffectiveConfig{}, invalid("log_level 无效：%q", logLevel)
	}

	listen := orDefault(fc.Listen, DefaultListen)
	if cli.ListenSet {
		listen = strings.TrimSpace(cli.Listen)
	}
	if listen == "" {
		return EffectiveConfig{}, invalid("listen 不能为空")
	}

	return EffectiveConfig{
		Catalog: Catalog{
			BaseURL:        baseURL,
			APIKey:         apiKey,
			Language:       orDefault(fc.Catalog.Language, DefaultLanguage),
			Regions:        regions,
			DefaultGenres:  genres,
			ExcludedGenres: excluded,
			JapanGenreID:   japanGenre,
			RequestTimeout: timeout,
			Paths:          paths,
		},
		ImageBaseURL: imageBaseURL,
		ProxyURL:     proxyURL,
		LogLevel:     strings.ToLower(logLevel),
		Listen:       listen,
	}, nil
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

func validateHTTPURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("必须是 http/https：%q", s)
	}
	if u.Host == "" {
		return fmt.Errorf("缺少 host：%q", s)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// readDotEnv 只读取 .env，不修改进程环境（避免测试之间互相污染）。
func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return godotenv.Read(path)
}
