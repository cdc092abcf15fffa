// Package cli is the folio admin command line. Every content kind in the registry
// gets the same set of screens, driven through the admin kit.
package cli

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/folio/internal/admin"
	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/imagehost"
	"github.com/debemdeboas/folio/internal/logger"
)

var cliLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	cliLogger = l
}

// Env is what every command needs once flags and config are resolved.
type Env struct {
	configPath string
	apiURL     string
	token      string
	logLevel   string

	Config     *config.Config
	HTTPClient *http.Client

	// confirm asks a yes/no question; replaced in tests.
	confirm func(in io.Reader, out io.Writer, question string) (bool, error)
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&Env{confirm: askConfirm})
}

func newRootCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folio",
		Short: "Portfolio content admin",
		Long: `folio manages the content of a portfolio site: blog posts, projects,
challenges, launches, tools and contact messages.

Every content kind has list, get, create, edit and delete commands. Mutations
need a session; run "folio login" first or set FOLIO_TOKEN.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return env.load()
		},
	}

	defaultConfig := os.Getenv(config.EnvConfigPath)
	if defaultConfig == "" {
		defaultConfig = config.DefaultConfigPath
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&env.configPath, "config", defaultConfig, "Path to the YAML config file")
	flags.StringVar(&env.apiURL, "api-url", "", "API server base URL (overrides admin.api_url)")
	flags.StringVar(&env.token, "token", "", "Session token (overrides FOLIO_TOKEN and the token file)")
	flags.StringVar(&env.logLevel, "log-level", "warn", "Log level for diagnostics on stderr")

	for _, schema := range content.All() {
		cmd.AddCommand(newResourceCmd(env, schema))
	}
	cmd.AddCommand(newUploadCmd(env))
	cmd.AddCommand(newWatchCmd(env))
	cmd.AddCommand(newLoginCmd(env))

	return cmd
}

func (e *Env) load() error {
	l := logger.New(e.logLevel, "console")
	config.SetLogger(logger.Component(l, "config"))
	admin.SetLogger(logger.Component(l, "admin"))
	imagehost.SetLogger(logger.Component(l, "imagehost"))
	SetLogger(logger.Component(l, "cli"))

	if e.Config == nil {
		if err := config.LoadConfig(e.configPath); err != nil {
			return err
		}
		e.Config = config.AppConfig
	}
	if e.apiURL != "" {
		e.Config.Admin.APIURL = e.apiURL
	}
	if e.HTTPClient == nil {
		e.HTTPClient = &http.Client{Timeout: e.Config.Admin.Timeout}
	}
	if e.token == "" {
		e.token = e.storedToken()
	}
	return nil
}

// storedToken falls back from the environment to the token file.
func (e *Env) storedToken() string {
	if t := os.Getenv(config.EnvAdminToken); t != "" {
		return t
	}
	data, err := os.ReadFile(e.Config.Admin.TokenFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			cliLogger.Warn().Err(err).Str("path", e.Config.Admin.TokenFile).Msg("Could not read token file")
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (e *Env) apiClient() *admin.APIClient {
	return admin.NewAPIClient(e.Config.Admin.APIURL, e.HTTPClient).WithToken(e.token)
}

func (e *Env) resource(schema *content.Schema, notifier admin.Notifier, query url.Values) *admin.Resource {
	mutations := admin.NewMutationClient(e.Config.Admin.APIURL, e.HTTPClient, notifier).WithToken(e.token)
	return admin.NewResource(schema, e.apiClient(), mutations, query)
}

func (e *Env) uploader() *imagehost.Client {
	return imagehost.NewClientFromConfig(e.Config).WithToken(e.token)
}

func (e *Env) maxUploadBytes() int64 {
	return int64(e.Config.Server.MaxUploadMB) << 20
}
