package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	grpcserver "github.com/therealutkarshpriyadarshi/guiding/pkg/api/grpc"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/api/rest"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/api/rest/middleware"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/config"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
		host        = flag.String("host", "", "server host (overrides config/env)")
		port        = flag.Int("port", 0, "server port (overrides config/env)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("Guiding Service v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	printBanner()

	cfg := config.LoadFromEnv()
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	log.Println("initializing guiding service...")
	grpcServer, err := grpcserver.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to create gRPC server: %v", err)
	}

	printStartupInfo(cfg)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Println("starting gRPC server...")
		if err := grpcServer.Start(); err != nil {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	var restServer *rest.Server
	if cfg.REST.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()

			time.Sleep(500 * time.Millisecond)

			restConfig := rest.Config{
				Host:        cfg.REST.Host,
				Port:        cfg.REST.Port,
				GRPCAddress: cfg.Server.Address(),
				CORSEnabled: cfg.REST.CORSEnabled,
				CORSOrigins: cfg.REST.CORSOrigins,
				Auth: middleware.AuthConfig{
					Enabled:     cfg.REST.AuthEnabled,
					JWTSecret:   cfg.REST.JWTSecret,
					PublicPaths: cfg.REST.PublicPaths,
					AdminPaths:  cfg.REST.AdminPaths,
				},
				RateLimit: middleware.RateLimitConfig{
					Enabled:        cfg.REST.RateLimitEnabled,
					RequestsPerSec: cfg.REST.RateLimitPerSec,
					Burst:          cfg.REST.RateLimitBurst,
					PerIP:          cfg.REST.RateLimitPerIP,
					PerUser:        cfg.REST.RateLimitPerUser,
					GlobalLimit:    cfg.REST.RateLimitGlobal,
				},
			}

			var err error
			restServer, err = rest.NewServer(restConfig)
			if err != nil {
				errChan <- fmt.Errorf("failed to create REST server: %w", err)
				return
			}

			log.Println("starting REST API server...")
			if err := restServer.Start(); err != nil {
				errChan <- fmt.Errorf("REST server error: %w", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	log.Println("servers are ready. Press Ctrl+C to stop.")
	select {
	case sig := <-sigChan:
		log.Printf("received signal: %v", sig)
	case err := <-errChan:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if restServer != nil {
		if err := restServer.Stop(ctx); err != nil {
			log.Printf("error stopping REST server: %v", err)
		}
	}

	if err := grpcServer.Stop(); err != nil {
		log.Printf("error stopping gRPC server: %v", err)
	}

	wg.Wait()

	log.Println("servers stopped. goodbye!")
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║   Adaptive Split-and-Merge Path-Guiding Service          ║
║   Parallax-aware vMF mixture fitting for Monte Carlo      ║
║   light transport                                         ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("Version: %s (commit: %s)\n\n", version, commit)
}

func printStartupInfo(cfg *config.Config) {
	fmt.Println("\n╔════════════════════════════════════════════════════════╗")
	fmt.Println("║            gRPC Server Configuration                   ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Address:          %-35s ║\n", cfg.Server.Address())
	fmt.Printf("║ TLS Enabled:      %-35v ║\n", cfg.Server.EnableTLS)
	fmt.Printf("║ Max Connections:  %-35d ║\n", cfg.Server.MaxConnections)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║            REST API Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Enabled:          %-35v ║\n", cfg.REST.Enabled)
	if cfg.REST.Enabled {
		fmt.Printf("║ Address:          %-35s ║\n", fmt.Sprintf("%s:%d", cfg.REST.Host, cfg.REST.Port))
		fmt.Printf("║ Auth Enabled:     %-35v ║\n", cfg.REST.AuthEnabled)
		fmt.Printf("║ CORS Enabled:     %-35v ║\n", cfg.REST.CORSEnabled)
		fmt.Printf("║ Rate Limiting:    %-35v ║\n", cfg.REST.RateLimitEnabled)
		if cfg.REST.RateLimitEnabled {
			fmt.Printf("║ Rate:             %-35s ║\n", fmt.Sprintf("%.1f req/s (burst: %d)", cfg.REST.RateLimitPerSec, cfg.REST.RateLimitBurst))
		}
	}
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║         Adaptive Split-and-Merge Configuration         ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Split threshold:  %-35v ║\n", cfg.ASM.SplitThreshold)
	fmt.Printf("║ Merge threshold:  %-35v ║\n", cfg.ASM.MergeThreshold)
	fmt.Printf("║ Max split itr:    %-35d ║\n", cfg.ASM.MaxSplitItr)
	fmt.Printf("║ EM max itr:       %-35d ║\n", cfg.ASM.EMMaxIterations)
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Println("║               Field Configuration                      ║")
	fmt.Println("╠════════════════════════════════════════════════════════╣")
	fmt.Printf("║ Max components:   %-35d ║\n", cfg.Field.MaxComponents)
	fmt.Printf("║ Candidate count:  %-35d ║\n", cfg.Field.CandidateCount)
	fmt.Printf("║ Data dir:         %-35s ║\n", cfg.Field.DefaultDataDir)
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
}

func showUsage() {
	fmt.Println("Guiding Service - adaptive split-and-merge path-guiding fitter")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  guiding-server [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -help             Show this help message")
	fmt.Println("  -version          Show version information")
	fmt.Println("  -host HOST        Server host (default: 0.0.0.0)")
	fmt.Println("  -port PORT        Server port (default: 50061)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GUIDING_HOST                     Server host")
	fmt.Println("  GUIDING_PORT                     Server port")
	fmt.Println("  GUIDING_MAX_CONNECTIONS          Max concurrent connections")
	fmt.Println("  GUIDING_REQUEST_TIMEOUT          Request timeout (e.g., 30s)")
	fmt.Println("  GUIDING_ENABLE_TLS               Enable TLS (true/false)")
	fmt.Println("  GUIDING_TLS_CERT                 TLS certificate file")
	fmt.Println("  GUIDING_TLS_KEY                  TLS key file")
	fmt.Println("  GUIDING_REST_ENABLED             Enable the REST front end")
	fmt.Println("  GUIDING_REST_PORT                REST port")
	fmt.Println("  GUIDING_REST_AUTH_ENABLED        Require JWT auth on REST")
	fmt.Println("  GUIDING_REST_JWT_SECRET          JWT signing secret")
	fmt.Println("  GUIDING_ASM_SPLIT_THRESHOLD      Split chi-squared threshold")
	fmt.Println("  GUIDING_ASM_MERGE_THRESHOLD      Merge dissimilarity threshold")
	fmt.Println("  GUIDING_ASM_USE_SPLIT_AND_MERGE  Enable split/merge dynamics")
	fmt.Println("  GUIDING_ASM_MAX_SPLIT_ITR        Split/local-EM rounds per Fit")
	fmt.Println("  GUIDING_ASM_EM_MAX_ITERATIONS    Weighted EM iteration cap")
	fmt.Println("  GUIDING_FIELD_CANDIDATE_COUNT    Candidates considered per region")
	fmt.Println("  GUIDING_FIELD_DATA_DIR           Field snapshot directory")
	fmt.Println("  GUIDING_LOG_LEVEL                DEBUG/INFO/WARN/ERROR/FATAL")
	fmt.Println("  GUIDING_LOG_TRACING              Enable per-batch tracing")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Start with default configuration")
	fmt.Println("  guiding-server")
	fmt.Println()
	fmt.Println("  # Start on custom port")
	fmt.Println("  guiding-server -port 9090")
	fmt.Println()
	fmt.Println("  # Start with environment variables")
	fmt.Println("  GUIDING_PORT=9090 GUIDING_ASM_SPLIT_THRESHOLD=0.5 guiding-server")
	fmt.Println()
}
