package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mattsolo1/grove-projects/pkg/bus"
	"github.com/mattsolo1/grove-projects/pkg/intent"
	"github.com/mattsolo1/grove-projects/pkg/search"
	"github.com/mattsolo1/grove-projects/pkg/service"
	"github.com/mattsolo1/grove-projects/pkg/status"
	"github.com/mattsolo1/grove-projects/pkg/sync"
	"github.com/mattsolo1/grove-projects/pkg/tree"
	"github.com/mattsolo1/grove-projects/pkg/workspace"
)

var (
	cfgFile           string
	WorkspaceOverride string
)

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "grove-projects")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("GP")
	viper.AutomaticEnv()

	SetDefaults(viper.GetViper())

	// A missing config file is fine; everything has a default.
	_ = viper.ReadInConfig()
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.rate_limit", 20)
	v.SetDefault("api.rate_burst", 40)
	v.SetDefault("bus.url", "")
	v.SetDefault("data_dir", workspace.GetDefaultDataDir())
	v.SetDefault("search.debounce", search.DefaultDelay)
	v.SetDefault("icons.image_extensions", tree.DefaultImageExtensions)
	v.SetDefault("icons.model_extensions", tree.DefaultModelExtensions)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/grove-projects/config.yaml)")
	cmd.PersistentFlags().StringVarP(&WorkspaceOverride, "workspace", "W", "", "Use this workspace instead of the persisted selection")
}

// NewLogger builds the logger from the log.* keys. With log.file set, output
// goes to a rotating file instead of stderr.
func NewLogger(v *viper.Viper) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(v.GetString("log.level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log.level: %w", err)
	}
	logger.SetLevel(level)

	if file := v.GetString("log.file"); file != "" {
		logger.SetOutput(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return logger, nil
}

// App holds the wired components shared by the commands.
type App struct {
	Logger     *logrus.Logger
	Hub        *bus.Hub
	Client     *service.Client
	Engine     *sync.Engine
	Dispatcher *intent.Dispatcher
	Reporter   *status.Fanout
	Bridge     *bus.Bridge // nil unless bus.url is set
	Debounce   time.Duration

	closers []io.Closer
}

// InitApp wires the application from the global viper configuration.
func InitApp() (*App, error) {
	return NewApp(viper.GetViper(), WorkspaceOverride)
}

// NewApp wires the application from v. A non-empty override selects that
// workspace for this run without touching the persisted selection.
func NewApp(v *viper.Viper, override string) (*App, error) {
	logger, err := NewLogger(v)
	if err != nil {
		return nil, err
	}
	entry := logrus.NewEntry(logger)

	client, err := service.New(service.Config{
		BaseURL:   v.GetString("api.base_url"),
		Timeout:   v.GetDuration("api.timeout"),
		RateLimit: v.GetInt("api.rate_limit"),
		RateBurst: v.GetInt("api.rate_burst"),
	}, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace client: %w", err)
	}

	app := &App{
		Logger:   logger,
		Hub:      bus.NewHub(entry),
		Client:   client,
		Debounce: v.GetDuration("search.debounce"),
	}
	app.Reporter = status.NewFanout(status.NewLogReporter(entry), status.NewHubReporter(app.Hub))

	var store workspace.Store
	if override != "" {
		ref := workspace.Ref{Name: override}
		if err := ref.Validate(); err != nil {
			return nil, err
		}
		store = workspace.NewMemoryStore(&ref)
	} else {
		sqlStore, err := workspace.NewSQLiteStore(v.GetString("data_dir"))
		if err != nil {
			return nil, fmt.Errorf("failed to open preferences: %w", err)
		}
		app.closers = append(app.closers, sqlStore)
		store = sqlStore
	}

	classifier := tree.NewClassifier(
		v.GetStringSlice("icons.image_extensions"),
		v.GetStringSlice("icons.model_extensions"),
	)

	app.Engine = sync.New(client,
		sync.WithStore(store),
		sync.WithBuilder(tree.NewBuilder(classifier)),
		sync.WithReporter(app.Reporter),
		sync.WithLogger(entry),
	)
	app.Dispatcher = intent.New(client, app.Reporter,
		intent.WithHub(app.Hub),
		intent.WithResolver(app.Engine),
		intent.WithLogger(entry),
	)
	app.Engine.SetIntents(app.Dispatcher)

	app.Engine.Attach(app.Hub)
	app.Dispatcher.Attach(app.Hub)

	if url := v.GetString("bus.url"); url != "" {
		app.Bridge = bus.NewBridge(url, app.Hub, bus.WithBridgeLogger(entry))
	}

	return app, nil
}

// Close releases the resources held by the app.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
