package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/atinyakov/go-link-gate/internal/app/server"
	grpcserver "github.com/atinyakov/go-link-gate/internal/app/server/grpc"
	"github.com/atinyakov/go-link-gate/internal/app/service"
	"github.com/atinyakov/go-link-gate/internal/config"
	"github.com/atinyakov/go-link-gate/internal/logger"
	"github.com/atinyakov/go-link-gate/internal/metrics"
	"github.com/atinyakov/go-link-gate/internal/middleware"
	"github.com/atinyakov/go-link-gate/internal/repository"
	"github.com/atinyakov/go-link-gate/internal/storage"
	"github.com/atinyakov/go-link-gate/internal/worker"

	_ "net/http/pprof"
)

var buildVersion string
var buildDate string
var buildCommit string

const (
	redisPrefix     = "linkgate:"
	shutdownTimeout = 10 * time.Second
)

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, options, log.Log); err != nil {
		log.Log.Error("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	if err := checkSessionSecret(options, zapLogger); err != nil {
		return err
	}

	store, err := openStore(ctx, options, zapLogger)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics.MustRegister()

	a := newApp(options, store, zapLogger)

	if options.AdminName != "" {
		if err := a.accounts.EnsureAdmin(ctx, options.AdminName, options.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	journalCtx, stopJournal := context.WithCancel(context.Background())
	defer stopJournal()
	go a.journal.Run(journalCtx)

	if options.EnablePprof {
		go func() {
			zapLogger.Info("Starting pprof server", zap.String("addr", "localhost:6060"))
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				zapLogger.Error("pprof server error", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:    options.ServerAddress,
		Handler: a.router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if options.EnableHTTPS {
			manager := &autocert.Manager{
				Cache:      autocert.DirCache("cache-dir"),
				Prompt:     autocert.AcceptTOS,
				HostPolicy: hostPolicy(options.CanonicalDomain, a.accounts),
			}
			srv.Addr = ":443"
			srv.TLSConfig = manager.TLSConfig()
			zapLogger.Info("Server is running with TLS", zap.String("domain", options.CanonicalDomain))
			err = srv.ListenAndServeTLS("", "")
		} else {
			zapLogger.Info("Server is running", zap.String("address", options.ServerAddress))
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if options.GRPCPort != 0 {
		g.Go(a.grpc.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if options.GRPCPort != 0 {
			a.grpc.GracefulStop()
		}

		// the journal is stopped only after no handler can enqueue anymore
		stopJournal()
		select {
		case <-a.journal.Done():
		case <-shutdownCtx.Done():
			zapLogger.Warn("visit journal did not drain in time")
		}
		return err
	})

	return g.Wait()
}

type app struct {
	router   http.Handler
	grpc     *grpcserver.Server
	journal  *worker.VisitJournal
	accounts *service.AccountService
}

func newApp(options *config.Options, store storage.Store, zapLogger *zap.Logger) *app {
	accounts := service.NewAccountService(store, zapLogger)
	links := service.NewLinkService(store, service.NewCodeGenerator(service.CodeLength), zapLogger, options.BaseURL, options.CanonicalDomain)
	resolver := service.NewResolver(store, store, options.CanonicalDomain, zapLogger)
	auth := service.NewAuth(options.SessionSecret)
	journal := worker.NewVisitJournal(zapLogger, store)

	router := server.Init(server.Deps{
		Resolver:        resolver,
		Links:           links,
		Accounts:        accounts,
		Auth:            auth,
		Visits:          journal,
		CanonicalDomain: options.CanonicalDomain,
		TrustedSubnet:   options.TrustedSubnet,
		SecureCookies:   options.EnableHTTPS,
		Logger:          zapLogger,
	})

	grpcSrv := grpcserver.New(options.GRPCPort, &grpcserver.ShortenerServer{
		Resolver: resolver,
		Links:    links,
		Visits:   journal,
		Logger:   zapLogger,
	}, auth, accounts, zapLogger)

	return &app{
		router:   router,
		grpc:     grpcSrv,
		journal:  journal,
		accounts: accounts,
	}
}

// openStore picks PostgreSQL when a DSN is configured, then Redis, and
// falls back to memory.
func openStore(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (storage.Store, error) {
	switch {
	case options.DatabaseDSN != "":
		zapLogger.Info("using db")
		db := repository.InitDB(options.DatabaseDSN, zapLogger)
		zapLogger.Info("Database connected and tables ready.")
		return repository.CreateRepository(db, zapLogger), nil

	case options.RedisAddr != "":
		zapLogger.Info("using redis", zap.String("addr", options.RedisAddr))
		return storage.NewRedisStorage(ctx, options.RedisAddr, options.RedisPassword, options.RedisDB, redisPrefix)

	default:
		zapLogger.Info("using in memory storage")
		return storage.CreateMemoryStorage()
	}
}

var errDefaultSecret = errors.New("the default session secret cannot be used with HTTPS, set SESSION_SECRET or -k")

// checkSessionSecret refuses the development secret when serving TLS and
// warns about it otherwise.
func checkSessionSecret(options *config.Options, zapLogger *zap.Logger) error {
	if options.SessionSecret != config.DefaultSessionSecret {
		return nil
	}
	if options.EnableHTTPS {
		return errDefaultSecret
	}
	zapLogger.Warn("using the default session secret, anyone can forge sessions; set SESSION_SECRET")
	return nil
}

// hostPolicy allows certificates for the configured domain, its www. form
// and the sub-domains of existing approved accounts. IP literals, localhost
// and every other host are refused.
func hostPolicy(domain string, accounts middleware.AccountFinder) autocert.HostPolicy {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	suffix := "." + domain

	return func(ctx context.Context, host string) error {
		host = strings.TrimSuffix(strings.ToLower(host), ".")

		if host == domain || host == "www."+domain {
			return nil
		}
		if host == "" || host == "localhost" || net.ParseIP(host) != nil || !strings.HasSuffix(host, suffix) {
			return fmt.Errorf("acme/autocert: host %q not configured", host)
		}

		tenant := strings.TrimSuffix(host, suffix)
		if tenant == "" || strings.Contains(tenant, ".") {
			return fmt.Errorf("acme/autocert: host %q not configured", host)
		}

		a, err := accounts.Find(ctx, tenant)
		if err != nil {
			return fmt.Errorf("acme/autocert: host %q not configured: %w", host, err)
		}
		if !a.Approved {
			return fmt.Errorf("acme/autocert: tenant %q is not active", tenant)
		}
		return nil
	}
}
