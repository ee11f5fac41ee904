package main

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/mvbrowse/internal/app/browse"
	"github.com/John-Robertt/mvbrowse/internal/catalog"
	"github.com/John-Robertt/mvbrowse/internal/config"
	"github.com/John-Robertt/mvbrowse/internal/domain"
	"github.com/John-Robertt/mvbrowse/internal/infra/fsx"
	"github.com/John-Robertt/mvbrowse/internal/infra/httpx"
	"github.com/John-Robertt/mvbrowse/internal/metrics"
	"github.com/John-Robertt/mvbrowse/internal/render"
	"github.com/John-Robertt/mvbrowse/internal/server"
)

type cli struct {
	stdout io.Writer
	stderr io.Writer
	tty    bool

	configPath string
	logLevel   string

	eff     config.EffectiveConfig
	log     hclog.Logger
	reg     *prometheus.Registry
	metrics *metrics.Collectors
	svc     *browse.Service
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{stdout: stdout, stderr: stderr, tty: isTTY(stdout)}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mvbrowse",
		Short: "按地区、列表或检索词浏览电影目录",
		Long: `mvbrowse 查询 TMDb 电影目录：全部地区合并按热度排序、按国家浏览、
top rated / upcoming / genres 列表、详情、演职员与 TV 列表。

stdout 是终端时输出表格；否则 stdout 只输出一个 JSON 文档，日志与摘要走 stderr。`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "配置文件路径（默认 ./"+config.FileName+"）")
	pf.StringVar(&c.logLevel, "log-level", "", "日志级别：trace|debug|info|warn|error")

	root.AddCommand(
		c.allCmd(),
		c.regionCmd(),
		c.listCmd(),
		c.detailCmd(),
		c.creditsCmd(),
		c.tvCmd(),
		c.renderCmd(),
		c.serveCmd(),
	)
	return root
}

// setup 加载配置并构造 logger / Fetcher / Service（所有子命令共享）。
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	listen, _ := cmd.Flags().GetString("listen")
	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath:  c.configPath,
		LogLevel:    c.logLevel,
		LogLevelSet: cmd.Flags().Changed("log-level"),
		Listen:      listen,
		ListenSet:   cmd.Flags().Changed("listen"),
	})
	if err != nil {
		c.presenter(cmd.Name()).ShowError(err)
		return failed
	}
	c.eff = eff

	c.log = hclog.New(&hclog.LoggerOptions{
		Name:   "mvbrowse",
		Level:  hclog.LevelFromString(eff.LogLevel),
		Output: c.stderr,
	})

	client, err := httpx.NewCatalogClient(eff.ProxyURL, eff.Catalog.RequestTimeout)
	if err != nil {
		c.presenter(cmd.Name()).ShowError(&config.Error{Code: config.ErrCodeInvalid, Path: eff.Source, Err: err})
		return failed
	}

	c.reg = metrics.NewRegistry()
	c.metrics = metrics.New(c.reg)
	f := catalog.New(client, catalog.Options{
		Timeout: eff.Catalog.RequestTimeout,
		Logger:  c.log.Named("catalog"),
		Metrics: c.metrics,
	})
	c.svc = browse.NewService(eff.Catalog, f, c.log.Named("browse"))
	c.log.Debug("config loaded", "source", eff.Source, "regions", len(eff.Catalog.Regions))
	return nil
}

func (c *cli) allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all [检索词]",
		Short: "全部地区合并，按热度降序；可按标题/初声过滤",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := c.presenter("all")
			browse.NewDispatcher(c.svc, p, c.log).SearchChanged(cmd.Context(), strings.Join(args, " "))
			return p.exit()
		},
	}
}

func (c *cli) regionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "region <CODE|ALL>",
		Short: "按国家浏览（ALL 等价于 all）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := c.presenter("region")
			browse.NewDispatcher(c.svc, p, c.log).MenuSelected(cmd.Context(), args[0])
			return p.exit()
		},
	}
}

// listFlags 是 list / tv 共用的 flag。
type listFlags struct {
	region string
	page   int
	genres []int
}

func (lf *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&lf.region, "region", "", "地区代码（例如 KR、US、JP）")
	cmd.Flags().IntVar(&lf.page, "page", 1, "页码（从 1 开始）")
	cmd.Flags().IntSliceVar(&lf.genres, "genre", nil, "genre id（只使用第一个；默认取配置的 default_genres）")
}

func (lf *listFlags) resolve(defaults []domain.Genre) (domain.Region, []domain.Genre, error) {
	if lf.page < 1 {
		return "", nil, usageError("--page 必须 >= 1，实际 %d", lf.page)
	}
	genres := defaults
	if len(lf.genres) > 0 {
		genres = make([]domain.Genre, 0, len(lf.genres))
		for _, id := range lf.genres {
			genres = append(genres, domain.Genre{ID: id})
		}
	}
	return domain.Region(lf.region), genres, nil
}

func (c *cli) listCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list <topRated|upcoming|genres>",
		Short: "top rated / upcoming / genres 列表",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return usageError("%v", err)
			}
			region, genres, err := lf.resolve(c.eff.Catalog.DefaultGenres)
			if err != nil {
				return err
			}
			p := c.presenter("list")
			p.ShowMovies(c.svc.MoviesByKind(cmd.Context(), kind, region, genres, lf.page))
			return p.exit()
		},
	}
	lf.bind(cmd)
	return cmd
}

func (c *cli) tvCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "tv --region <CODE>",
		Short: "TV 列表（美国按投票数排序，其他按热度）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			region, genres, err := lf.resolve(c.eff.Catalog.DefaultGenres)
			if err != nil {
				return err
			}
			p := c.presenter("tv")
			p.ShowMovies(c.svc.TV(cmd.Context(), region, genres, lf.page))
			return p.exit()
		},
	}
	lf.bind(cmd)
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, usageError("id 必须是正整数，实际 %q", s)
	}
	return id, nil
}

func (c *cli) detailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detail <movie-id>",
		Short: "影片详情（原样输出 catalog 返回的对象）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p := c.presenter("detail")
			p.ShowDetail(c.svc.Detail(cmd.Context(), id))
			return p.exit()
		},
	}
}

func (c *cli) creditsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credits <movie-id>",
		Short: "前 15 位出演者及其人物图片",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p := c.presenter("credits")
			p.ShowCredits(c.svc.Credits(cmd.Context(), id))
			return p.exit()
		},
	}
}

func (c *cli) renderCmd() *cobra.Command {
	var (
		region string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "render [检索词]",
		Short: "把结果渲染为 HTML 页面并写入文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := render.New(render.Options{
				ImageBaseURL: c.eff.ImageBaseURL,
				Regions:      c.eff.Catalog.Regions,
				Logger:       c.log.Named("render"),
			})
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			search := strings.Join(args, " ")
			var (
				html  string
				count int
				rerr  error
			)
			d := browse.NewDispatcher(c.svc, browse.PresenterFunc(func(res domain.Result[[]domain.Movie]) {
				if !res.OK() {
					rerr = res.Err
					return
				}
				count = len(res.Value)
				html, rerr = page.Render(res, render.Controls{Search: search, Region: region})
			}), c.log)
			if strings.TrimSpace(search) == "" && strings.TrimSpace(region) != "" {
				d.MenuSelected(cmd.Context(), region)
			} else {
				d.SearchChanged(cmd.Context(), search)
			}

			if rerr == nil {
				rerr = fsx.WriteFile(out, []byte(html))
			}
			p := c.presenter("render")
			p.ShowRendered(out, count, rerr)
			return p.exit()
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "按国家浏览（未指定检索词时生效；ALL 表示全部地区）")
	cmd.Flags().StringVarP(&out, "out", "o", "mvbrowse.html", "输出文件")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 前端（HTML 页面、JSON API、/metrics）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h := server.New(server.Options{
				Service: c.svc,
				Page: render.Options{
					ImageBaseURL: c.eff.ImageBaseURL,
					Regions:      c.eff.Catalog.Regions,
					Logger:       c.log.Named("render"),
				},
				DefaultGenres: c.eff.Catalog.DefaultGenres,
				Metrics:       c.metrics,
				Gatherer:      c.reg,
				Logger:        c.log.Named("http"),
			})

			listUI{w: c.stderr}.served(c.eff)
			if err := server.ListenAndServe(cmd.Context(), c.eff.Listen, h, c.log.Named("server")); err != nil {
				return &exitError{code: 1, err: err}
			}
			return nil
		},
	}
	cmd.Flags().String("listen", config.DefaultListen, "监听地址")
	return cmd
}
