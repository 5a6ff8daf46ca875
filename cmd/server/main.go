// main.go

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"git.uuxo.net/uuxo/mime-resolver/internal/auth"
	"git.uuxo.net/uuxo/mime-resolver/internal/cache"
	"git.uuxo.net/uuxo/mime-resolver/internal/compression"
	"git.uuxo.net/uuxo/mime-resolver/internal/config"
	"git.uuxo.net/uuxo/mime-resolver/internal/cpufeatures"
	"git.uuxo.net/uuxo/mime-resolver/internal/handlers"
	"git.uuxo.net/uuxo/mime-resolver/internal/history"
	"git.uuxo.net/uuxo/mime-resolver/internal/logging"
	"git.uuxo.net/uuxo/mime-resolver/internal/metrics"
	"git.uuxo.net/uuxo/mime-resolver/internal/network"
	"git.uuxo.net/uuxo/mime-resolver/internal/resolver"
	"git.uuxo.net/uuxo/mime-resolver/internal/scanning"
	"git.uuxo.net/uuxo/mime-resolver/internal/server"
	"git.uuxo.net/uuxo/mime-resolver/internal/storage"
	"git.uuxo.net/uuxo/mime-resolver/internal/utils"
	"git.uuxo.net/uuxo/mime-resolver/internal/workers"
)

const defaultVersion = "1.2.0"

// How long thumbnail cache files live before the cleanup pass drops them.
const thumbCacheTTL = 7 * 24 * time.Hour

var (
	log  = logrus.New()
	conf *config.Config

	res           *resolver.Resolver
	sniffCache    *cache.Store
	historyStore  *history.Store
	maxBodyBytes  int64
	versionString string
)

// propagateLogger hands the shared logger to every package.
func propagateLogger() {
	config.SetLogger(log)
	metrics.SetLogger(log)
	workers.SetLogger(log)
	scanning.SetLogger(log)
	cache.SetLogger(log)
	history.SetLogger(log)
	auth.SetLogger(log)
	storage.SetLogger(log)
	server.SetLogger(log)
	handlers.SetLogger(log)
}

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "./config.toml", "Path to configuration file \"config.toml\".")
	var genConfig bool
	var genConfigAdvanced bool
	var genConfigPath string
	var validateOnly bool
	var showVersion bool

	flag.BoolVar(&genConfig, "genconfig", false, "Print minimal configuration example and exit.")
	flag.BoolVar(&genConfigAdvanced, "genconfig-advanced", false, "Print advanced configuration template and exit.")
	flag.StringVar(&genConfigPath, "genconfig-path", "", "Write configuration to the given file and exit.")
	flag.BoolVar(&validateOnly, "validate-config", false, "Validate configuration and exit without starting server.")
	flag.BoolVar(&showVersion, "version", false, "Show version information and exit.")
	flag.Parse()

	if showVersion {
		fmt.Printf("MIME Resolver v%s\n", defaultVersion)
		os.Exit(0)
	}

	if genConfig {
		fmt.Println("# Option 1: Minimal Configuration (recommended for most users)")
		fmt.Println(config.GenerateMinimalConfig())
		fmt.Println("\n# Option 2: Advanced Configuration Template (for fine-tuning)")
		fmt.Println("# Use -genconfig-advanced to generate the advanced template")
		os.Exit(0)
	}
	if genConfigAdvanced && genConfigPath == "" {
		fmt.Println(config.GenerateAdvancedConfigTemplate())
		os.Exit(0)
	}
	if genConfigPath != "" {
		var content string
		if genConfigAdvanced {
			content = config.GenerateAdvancedConfigTemplate()
		} else {
			content = config.GenerateMinimalConfig()
		}

		f, err := os.Create(genConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w := bufio.NewWriter(f)
		fmt.Fprint(w, content)
		w.Flush()
		fmt.Printf("Configuration written to %s\n", genConfigPath)
		os.Exit(0)
	}

	loadedConfig, err := config.Load(configFile)
	if err != nil {
		// If no config file exists, offer to create a minimal one
		if configFile == "./config.toml" || configFile == "" {
			fmt.Println("No configuration file found. Creating a minimal config.toml...")
			if err := config.CreateMinimalConfig(); err != nil {
				log.Fatalf("Failed to create minimal config: %v", err)
			}
			fmt.Println("Minimal config.toml created. Please review and modify as needed, then restart the server.")
			os.Exit(0)
		}
		log.Fatalf("Failed to load configuration: %v", err)
	}
	conf = loadedConfig
	log.Info("Configuration loaded successfully.")

	if err := config.ValidateConfig(conf); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	log.Info("Configuration validated successfully.")

	if validateOnly {
		log.Info("Configuration validation completed successfully!")
		os.Exit(0)
	}

	level, err := logrus.ParseLevel(conf.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info'", conf.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.Infof("Log level set to: %s", level.String())

	logging.SetupLogging(conf, log)
	propagateLogger()
	logging.LogSystemInfo(log, defaultVersion)

	if err := logging.WritePIDFile(conf.Server.PIDFilePath, log); err != nil {
		log.Fatalf("Error writing PID file: %v", err)
	}

	metrics.InitMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.UpdateSystemMetrics()
			case <-ctx.Done():
				return
			}
		}
	}()

	workers.InitializeWorkerSettings(&conf.Workers)
	workers.MonitorWorkerPerformance()
	if conf.Workers.NumWorkers <= 0 {
		workers.AutoAdjustWorkers()
	}

	if err := scanning.InitClamAV(&conf.ClamAV); err != nil {
		log.WithError(err).Warn("ClamAV client initialization failed. Continuing without ClamAV.")
	}

	dialer, err := network.DialerFor(conf.Server.ForceProtocol)
	if err != nil {
		log.Fatalf("Invalid force_protocol: %v", err)
	}

	sniffCache, err = cache.New(&conf.Cache, &conf.Redis, dialer)
	if err != nil {
		log.Fatalf("Failed to initialize sniff cache: %v", err)
	}

	if conf.History.Enabled {
		historyStore, err = history.Open(conf.History.DBPath)
		if err != nil {
			log.Fatalf("Failed to open history store: %v", err)
		}
		go runHistoryPurge(ctx)
	}

	InitThumbnails(&conf.Thumbnails)
	if conf.Thumbnails.Enabled && conf.Thumbnails.Directory != "" {
		minFree, err := utils.ParseSize(conf.Server.MinFreeBytes)
		if err != nil {
			log.Warnf("Invalid min_free_bytes %q: %v", conf.Server.MinFreeBytes, err)
		} else if err := storage.CheckFreeSpaceWithRetry(conf.Thumbnails.Directory, uint64(minFree), 3, 5*time.Second); err != nil {
			log.Warnf("Thumbnail cache space check failed: %v", err)
		}
		go runThumbnailCleanup(ctx)
	}

	InitRateLimiter(&conf.RateLimit)

	// An unconfigured policy adopts the stock allow/block lists.
	if len(conf.Policy.AllowedTypes) == 0 && len(conf.Policy.BlockedTypes) == 0 {
		def := DefaultPolicyConfig()
		def.StrictMode = conf.Policy.StrictMode
		def.MaxPayloadSize = conf.Policy.MaxPayloadSize
		conf.Policy = def
	}
	InitContentPolicy(&conf.Policy)

	maxBodyBytes, err = utils.ParseSize(conf.Server.MaxBodySize)
	if err != nil {
		log.Warnf("Invalid max_body_size %q, using 10MB: %v", conf.Server.MaxBodySize, err)
		maxBodyBytes = 10 << 20
	}

	res, err = resolver.New(resolver.Options{
		Table: conf.Resolver.Table,
		Magic: conf.Resolver.Magic,
	})
	if err != nil {
		log.Fatalf("Failed to initialize resolver: %v", err)
	}
	log.Infof("Resolver initialized: table=%s, magic=%v", conf.Resolver.Table, conf.Resolver.Magic)

	versionString = defaultVersion
	if conf.Build.Version != "" {
		versionString = conf.Build.Version
	}
	log.Infof("Running version: %s", versionString)

	router := setupRouter()
	handler := RateLimitMiddleware(router)
	if conf.Server.CompressionEnabled {
		handler = compression.Middleware(handler)
		log.Infof("Response compression enabled (gzip level %d, %s SIMD tier)",
			compression.Level(), cpufeatures.Detect().SIMDTier())
	}

	readTimeout, err := time.ParseDuration(conf.Timeouts.Read)
	if err != nil {
		log.Fatalf("Invalid ReadTimeout: %v", err)
	}
	writeTimeout, err := time.ParseDuration(conf.Timeouts.Write)
	if err != nil {
		log.Fatalf("Invalid WriteTimeout: %v", err)
	}
	idleTimeout, err := time.ParseDuration(conf.Timeouts.Idle)
	if err != nil {
		log.Fatalf("Invalid IdleTimeout: %v", err)
	}
	shutdownTimeout, err := time.ParseDuration(conf.Timeouts.Shutdown)
	if err != nil {
		shutdownTimeout = 30 * time.Second
	}

	addr := conf.Server.BindIP + ":" + conf.Server.ListenAddress
	srv := server.New(addr, handler, readTimeout, writeTimeout, idleTimeout, conf.Server.MaxHeaderBytes)

	if conf.Server.MetricsEnabled {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			log.Infof("Metrics server started on port %s", conf.Server.MetricsPort)
			if err := http.ListenAndServe(":"+conf.Server.MetricsPort, nil); err != nil {
				log.Fatalf("Metrics server failed: %v", err)
			}
		}()
	}

	server.SetupGracefulShutdown(srv, cancel, shutdownTimeout, func() {
		if workers.GlobalPool != nil {
			workers.GlobalPool.Stop()
		}
		if sniffCache != nil {
			sniffCache.Close()
		}
		if historyStore != nil {
			historyStore.Close()
		}
		logging.RemovePIDFile(conf.Server.PIDFilePath, log)
	})

	server.PrintStartupBanner(versionString, addr)
	if err := server.Start(srv); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}

// runHistoryPurge drops history rows older than the configured age.
func runHistoryPurge(ctx context.Context) {
	purgeAge := 720 * time.Hour
	if conf.History.PurgeAge != "" {
		if d, err := utils.ParseTTL(conf.History.PurgeAge); err == nil {
			purgeAge = d
		} else {
			log.Warnf("Invalid history purge_age %q, using %s: %v", conf.History.PurgeAge, purgeAge, err)
		}
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			workers.GlobalPool.Submit(workers.Task{Execute: func() error {
				purgeCtx, purgeCancel := context.WithTimeout(context.Background(), time.Minute)
				defer purgeCancel()
				purged, err := historyStore.Purge(purgeCtx, purgeAge)
				if err != nil {
					return err
				}
				if purged > 0 {
					log.Infof("Purged %d expired history rows", purged)
				}
				return nil
			}})
		case <-ctx.Done():
			return
		}
	}
}

// runThumbnailCleanup prunes expired thumbnail cache files.
func runThumbnailCleanup(ctx context.Context) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			storage.HandleFileCleanup(conf.Thumbnails.Directory, thumbCacheTTL)
		case <-ctx.Done():
			return
		}
	}
}
