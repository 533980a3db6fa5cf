package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "go_storefront/api/v1"
	"go_storefront/internal/acme"
	"go_storefront/internal/analytics"
	"go_storefront/internal/auth"
	"go_storefront/internal/cache"
	"go_storefront/internal/config"
	"go_storefront/internal/db"
	"go_storefront/internal/edge"
	"go_storefront/internal/health"
	"go_storefront/internal/model"
	"go_storefront/internal/probe"
	"go_storefront/internal/registry"
	"go_storefront/internal/verify"
	"go_storefront/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("✓ Configuration loaded")

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.GetDB()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Println("✓ Database migrated")
	}

	// 3. Initialize Redis
	if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer cache.Close()

	// 4. Initialize JWT + Socket.IO
	auth.InitJWT(cfg.JWT.Secret)
	if err := ws.InitServer(); err != nil {
		log.Fatalf("Failed to initialize websocket server: %v", err)
	}

	// 5. Wire services
	provider := edge.FromConfig(cfg.EdgeProvider.APIToken, cfg.EdgeProvider.ZoneID)
	reg := registry.NewService(db.GetDB(), provider)

	dnsProber := probe.NewDNSProber(
		cfg.Probe.Nameserver,
		time.Duration(cfg.Probe.DNSTimeoutSec)*time.Second,
		cfg.Platform.IngressIP,
		cfg.Platform.EdgeHostname,
	)
	tlsProber := probe.NewTLSProber(time.Duration(cfg.Probe.TLSTimeoutSec) * time.Second)
	httpProber := probe.NewHTTPProber(time.Duration(cfg.Probe.HTTPTimeoutSec) * time.Second)

	engine := verify.NewEngine(reg, dnsProber, tlsProber, provider,
		time.Duration(cfg.Probe.OverallTimeoutSec)*time.Second,
		time.Duration(cfg.Probe.ProviderTimeoutSec)*time.Second,
	)
	checker := health.NewChecker(httpProber, tlsProber, dnsProber)
	analyticsService := analytics.NewService(db.GetDB(), time.Duration(cfg.Analytics.CacheTTLSec)*time.Second)

	var acmeService *acme.Service
	if cfg.ACME.Enabled {
		acmeService = acme.NewService(db.GetDB(), cfg.ACME.MaxAttempts, cfg.ACME.RenewBeforeDays)
	}

	// Status changes go out over the websocket, successes additionally
	// feed the certificate queue
	engine.OnResult(func(domain *model.StoreDomain, result *verify.Result) {
		eventType := "failed"
		if result.Success {
			eventType = "verified"
		}
		_ = ws.PublishDomainEvent(domain.TenantID, eventType, map[string]interface{}{
			"domainId": domain.ID,
			"tenantId": domain.TenantID,
			"domain":   domain.Domain,
			"status":   result.Status,
			"error":    result.Error,
		})

		if result.Success && acmeService != nil {
			if err := acmeService.Enqueue(context.Background(), domain); err != nil {
				log.Printf("Failed to enqueue certificate for %s: %v", domain.Domain, err)
			}
		}
	})

	// 6. Start background workers
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.VerifyWorker.Enabled {
		worker := verify.NewWorker(engine, reg,
			time.Duration(cfg.VerifyWorker.IntervalSec)*time.Second,
			cfg.VerifyWorker.BatchSize,
			cfg.VerifyWorker.Concurrency,
		)
		go worker.Run(ctx)
	}

	if cfg.HealthWorker.Enabled {
		monitor := health.NewWorker(checker, reg,
			time.Duration(cfg.HealthWorker.IntervalSec)*time.Second,
			cfg.HealthWorker.Concurrency,
		)
		monitor.OnSnapshot(func(domain *model.StoreDomain, snapshot registry.HealthSnapshot) {
			_ = ws.PublishDomainEvent(domain.TenantID, "health", map[string]interface{}{
				"domainId": domain.ID,
				"tenantId": domain.TenantID,
				"domain":   domain.Domain,
				"online":   snapshot.Online,
			})
		})
		go monitor.Run(ctx)
	}

	if acmeService != nil {
		issuer := acme.NewIssuer(cfg.ACME.Email, cfg.ACME.DirectoryURL, cfg.ACME.HTTPPort)
		acmeWorker := acme.NewWorker(acmeService, issuer, time.Duration(cfg.ACME.IntervalSec)*time.Second)
		go acmeWorker.Run(ctx)
	}

	// 7. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	v1.SetupRouter(r, v1.Deps{
		DB:        db.GetDB(),
		Config:    cfg,
		Registry:  reg,
		Engine:    engine,
		Checker:   checker,
		Analytics: analyticsService,
		Provider:  provider,
		ACME:      acmeService,
	})

	// Socket.IO endpoint, JWT-gated at the handshake
	r.Any("/socket.io/*any", gin.WrapH(ws.WrapWithAuth(ws.Server)))

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
		os.Exit(1)
	}
}
