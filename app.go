package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"post-assist-bot/bot"
	"post-assist-bot/internal/chat"
	"post-assist-bot/internal/config"
	"post-assist-bot/internal/database"
	"post-assist-bot/internal/knowledge"
	"post-assist-bot/internal/ledger"
	"post-assist-bot/internal/logger"
	"post-assist-bot/internal/metrics"
	"post-assist-bot/internal/postal"
	"post-assist-bot/internal/uploads"

	"github.com/gin-gonic/gin"
)

func main() {
	var (
		cnf = &config.Conf{}

		configFile = flag.String("config", "./config/config.yml", "Usage: -config=<config_file>")
		debug      = flag.Bool("debug", false, "Print debug information on stderr")
	)

	flag.Parse()

	config.GetConfig(*configFile, cnf)
	cnf.RunInDebug = *debug

	if logFile := logger.InitLogger(*debug, &cnf.Log); logFile != nil {
		defer logFile.Close()
	}
	logger.Info("Application starting...")

	if *debug {
		logger.Debug("Config:", cnf)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	rec := metrics.New(cnf.Metrics.IsEnabled())

	sessions := database.ConnectInMemoryCache(cnf.Session.TTL.Std())
	// entries outlive the ttl, the resolver decides freshness
	officeCache := database.ConnectInMemoryCache(2 * cnf.Cache.PincodeTTL.Std())

	kb := knowledge.NewBase(cnf.KnowledgeBase)
	store := uploads.NewStore(cnf.UploadsDir, cnf.Upload.Extensions)
	if err := os.MkdirAll(cnf.UploadsDir, 0755); err != nil {
		logger.Crit(err)
	}

	cl := postal.NewClient(cnf.Upstream.Timeout.Std(), cnf.Upstream.UserAgent)
	machine := chat.New(
		kb,
		postal.NewPincodeResolver(cl, cnf.Upstream.PincodeURL, postal.NewOfficeCache(officeCache), cnf.Cache.PincodeTTL.Std(), rec),
		postal.NewGeoResolver(cl, cnf.Upstream.GeocodeURL, rec),
		ledger.New(cnf.ComplaintsFile),
		cnf.Server.PublicURL,
		rec,
	)

	app := gin.Default()
	app.Use(
		config.Inject(database.CTX_CONFIG, cnf),
		database.InjectInMemoryCache(database.CTX_SESSIONS, sessions),
		chat.Inject(database.CTX_MACHINE, machine),
		uploads.Inject(database.CTX_UPLOADS, store),
		metrics.Inject(database.CTX_METRICS, rec),
	)

	bot.InitHooks(app, cnf, rec)

	srv := &http.Server{
		Addr:    cnf.Server.Listen,
		Handler: app,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Listen: %s\n", err)
		}
	}()

	// reload the knowledge base on change
	watcher, err := knowledge.Watch(kb)
	if err != nil {
		logger.Warning("Knowledge base changes are not watched:", err)
	} else {
		defer watcher.Close()
	}

	logger.Info("Application started on", cnf.Server.Listen)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signals
	logger.Info("Catch OS signal", sig.String(), "Exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warning("App forced to shutdown:", err)
	}
	_ = sessions.Close()
	_ = officeCache.Close()

	logger.Info("Application stopped correctly!")
}
