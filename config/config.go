// Package config loads the run configuration from flags, environment and an optional file.
package config

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"strings"
	"time"

	"git.pepabo.com/yukyan/gh-devupdate/github/model"
	"git.pepabo.com/yukyan/gh-devupdate/github/util"
	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/cli/go-gh/v2/pkg/repository"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DEVUPDATE"

// Config holds everything one run needs.
type Config struct {
	Repos        []repository.Repository
	Branch       model.BranchFilter
	LemmyURL     string
	Community    string
	TitlePattern string
	PostLimit    int
	Scope        model.Scope

	ExcludeLabels  []string
	ExcludeAuthors []string
	Lenient        bool

	Timeout      time.Duration
	Output       string
	OutputFormat string
	LogLevel     string

	Token string
}

// Validate ensures the configured values are usable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Repos, validation.Required),
		validation.Field(&c.LemmyURL, validation.Required, is.URL),
		validation.Field(&c.Community, validation.Required),
		validation.Field(&c.TitlePattern, validation.Required),
		validation.Field(&c.PostLimit, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&c.Scope, validation.Required, validation.In(model.ScopeLocal, model.ScopeAll)),
		validation.Field(&c.OutputFormat, validation.Required, validation.In("md", "json")),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.Branch, validation.By(validateBranch)),
	)
}

func validateBranch(value interface{}) error {
	b, _ := value.(model.BranchFilter)
	if b.Name == "" {
		return fmt.Errorf("branch name is required")
	}
	if b.Field != model.BranchFieldBase && b.Field != model.BranchFieldHead {
		return fmt.Errorf("branch field must be %q or %q", model.BranchFieldBase, model.BranchFieldHead)
	}
	return nil
}

// Flags registers the command-line flags.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("env-file", ".env", "dotenv file read before the environment, empty to skip")
	fs.StringSlice("repos", []string{"LemmyNet/lemmy", "LemmyNet/lemmy-ui"}, "repositories to collect pull requests from (owner/name)")
	fs.String("branch", "main", "branch name the pull request filter matches")
	fs.String("branch-field", string(model.BranchFieldBase), "match the branch against the pull request base or head")
	fs.String("lemmy-url", "https://lemmy.ml", "Lemmy instance hosting the announcements")
	fs.String("community", "announcements", "community the dev updates are posted to")
	fs.String("title-pattern", "Lemmy Development Update", "substring identifying a dev update post")
	fs.Int("post-limit", 20, "number of newest posts scanned for the dev update")
	fs.String("scope", string(model.ScopeLocal), "post listing scope (local or all)")
	fs.StringSlice("exclude-labels", []string{"internal"}, "pull requests carrying one of these labels are skipped")
	fs.StringSlice("exclude-authors", []string{"renovate[bot]"}, "pull requests by these authors are skipped")
	fs.Bool("lenient", false, "skip malformed pull requests instead of failing")
	fs.Duration("timeout", 30*time.Second, "deadline for each fetch (0 disables)")
	fs.StringP("output", "o", "-", "output file, - for stdout")
	fs.String("output-format", "md", "output format (md or json)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("token", "", "GitHub token, defaults to GH_TOKEN, GITHUB_TOKEN or the gh CLI login")
	return fs
}

// Load parses args and merges flags, environment (DEVUPDATE_*), the dotenv file and the config file.
func Load(args []string) (*Config, error) {
	fs := Flags("gh-devupdate")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if envFile := v.GetString("env-file"); envFile != "" {
		envMap, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			for k, val := range envMap {
				if _, exists := os.LookupEnv(k); !exists {
					_ = os.Setenv(k, val)
				}
			}
		// Only a missing default .env is tolerated
		case fs.Changed("env-file") || !errors.Is(err, iofs.ErrNotExist):
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	repos, err := parseRepos(listValue(v, "repos"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Repos: repos,
		Branch: model.BranchFilter{
			Field: model.BranchField(v.GetString("branch-field")),
			Name:  v.GetString("branch"),
		},
		LemmyURL:       v.GetString("lemmy-url"),
		Community:      v.GetString("community"),
		TitlePattern:   v.GetString("title-pattern"),
		PostLimit:      v.GetInt("post-limit"),
		Scope:          model.Scope(v.GetString("scope")),
		ExcludeLabels:  listValue(v, "exclude-labels"),
		ExcludeAuthors: listValue(v, "exclude-authors"),
		Lenient:        v.GetBool("lenient"),
		Timeout:        v.GetDuration("timeout"),
		Output:         v.GetString("output"),
		OutputFormat:   v.GetString("output-format"),
		LogLevel:       v.GetString("log-level"),
		Token:          resolveToken(v.GetString("token")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Environment values arrive as one comma separated string.
func listValue(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		out = append(out, util.SplitList(item)...)
	}
	return out
}

func parseRepos(raw []string) ([]repository.Repository, error) {
	repos := make([]repository.Repository, 0, len(raw))
	for _, r := range raw {
		repo, err := repository.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("parse repository %q: %w", r, err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// An empty result leaves token lookup to go-gh, which then fails with an auth error.
func resolveToken(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	token, _ := auth.TokenForHost("github.com")
	return token
}
