package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/webinsight/dashboard/analysis"
	"github.com/webinsight/dashboard/authgate"
	"github.com/webinsight/dashboard/config"
	"github.com/webinsight/dashboard/export"
	"github.com/webinsight/dashboard/locale"
	"github.com/webinsight/dashboard/logging"
	"github.com/webinsight/dashboard/prefs"
	"github.com/webinsight/dashboard/server"
	"github.com/webinsight/dashboard/session"
	"github.com/webinsight/dashboard/stats"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Development: cfg.GinMode == gin.DebugMode,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	store, err := prefs.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening preferences: %w", err)
	}

	translator := locale.NewTranslator(locale.NewHTTPFetcher(cfg.LocaleBaseURL), store, logger)
	restoreCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	translator.Restore(restoreCtx)
	cancel()

	engine := analysis.NewClient(cfg.EngineURL, translator.Code, logger)

	ctrl := session.NewController(engine, translator, logger)
	if cfg.AnalyzeTimeout > 0 {
		ctrl.SetTimeout(cfg.AnalyzeTimeout)
	}
	articles := session.NewArticleSession(engine, translator, logger)

	gate := authgate.NewGate(authgate.NewHTTPClient(cfg.AuthURL, logger), store, logger)
	exporter := export.NewOrchestrator(engine, ctrl, cfg.DownloadsDir, logger)

	usage, err := stats.NewStorage(cfg.DataDir, logger)
	if err != nil {
		return fmt.Errorf("opening statistics: %w", err)
	}
	defer usage.Close()

	srv := server.New(cfg, engine, ctrl, articles, gate, exporter, translator, store, usage, logger)
	return srv.Run()
}
