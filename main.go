package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"git.pepabo.com/yukyan/gh-devupdate/changelog"
	"git.pepabo.com/yukyan/gh-devupdate/config"
	"git.pepabo.com/yukyan/gh-devupdate/github"
	"git.pepabo.com/yukyan/gh-devupdate/github/output"
	"git.pepabo.com/yukyan/gh-devupdate/lemmy"
	"git.pepabo.com/yukyan/gh-devupdate/logger"
	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	// コマンドライン引数の解析
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log = log.With(zap.String("run_id", uuid.NewString()))
	ctx = logger.WithContext(ctx, log)

	if err := run(ctx, cfg); err != nil {
		log.Error("dev update generation failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// GitHubクライアントの初期化
	gh, err := github.NewClient(api.ClientOptions{
		AuthToken: cfg.Token,
		Headers:   map[string]string{"User-Agent": "generate-dev-update"},
	})
	if err != nil {
		return err
	}

	forum := lemmy.NewClient(lemmy.Options{
		BaseURL:      cfg.LemmyURL,
		Community:    cfg.Community,
		TitlePattern: cfg.TitlePattern,
		Limit:        cfg.PostLimit,
		Scope:        cfg.Scope,
	})

	repos := make([]changelog.Repo, 0, len(cfg.Repos))
	for _, r := range cfg.Repos {
		repos = append(repos, changelog.Repo{Owner: r.Owner, Name: r.Name})
	}

	gen := changelog.NewGenerator(gh, forum, changelog.Options{
		Repos:           repos,
		Branch:          cfg.Branch,
		Timeout:         cfg.Timeout,
		ExcludedLabels:  cfg.ExcludeLabels,
		ExcludedAuthors: cfg.ExcludeAuthors,
		Lenient:         cfg.Lenient,
	})

	// データ取得
	res, err := gen.Generate(ctx)
	if err != nil {
		return err
	}

	// 結果の出力
	return output.WriteResults(os.Stdout, res.Report, res.LastUpdate.Published, cfg.Output, cfg.OutputFormat)
}
