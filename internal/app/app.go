package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/api"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/metrics"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	uploadnats "github.com/File-Sharing-BondBridg/Upload-Service/internal/nats"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage/disks"
	"github.com/File-Sharing-BondBridg/Upload-Service/uploads/previews"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const serviceName = "upload-service"

// App holds the wired upload service.
type App struct {
	Config  *configuration.Config
	Uploads *services.Manager
	Disks   *disks.Manager
	Owners  *models.OwnerRegistry

	store storage.Store
	nats  *uploadnats.Client
	log   *log.Logger
}

// Build connects every collaborator named by cfg. withEvents controls whether NATS is dialed.
func Build(ctx context.Context, cfg *configuration.Config, withEvents bool) (*App, error) {
	base := log.New(os.Stdout, "[app] ", log.LstdFlags)

	if cfg.TraceEnabled {
		tracer.Start(tracer.WithService(serviceName))
		base.Println("Datadog tracer started")
	}

	diskManager, err := buildDisks(ctx, cfg)
	if err != nil {
		return nil, err
	}
	base.Printf("disks: %v (default %s)", diskManager.Names(), diskManager.DefaultName())

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	base.Printf("metadata store: %s", cfg.MetadataStore)

	owners := models.NewOwnerRegistry()
	for _, kind := range cfg.Uploads.OwnerKinds {
		owners.RegisterPassthrough(models.OwnerKind(kind))
	}

	deps := services.Deps{
		Disks:     diskManager,
		Store:     store,
		Codec:     previews.NewCodec(),
		Sizes:     cfg.Uploads.ThumbnailSizes,
		SignedTTL: cfg.Uploads.SignedURLTTL,
		Metrics:   metrics.Default(),
		Logger:    log.New(base.Writer(), "[Upload] ", base.Flags()),
	}

	a := &App{Config: cfg, Disks: diskManager, Owners: owners, store: store, log: base}

	if withEvents && cfg.NATSURL != "" {
		client, err := uploadnats.Connect(cfg.NATSURL, serviceName)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.nats = client
		deps.Events = client
	}

	a.Uploads = services.NewManager(deps, services.ManagerConfig{CacheSize: cfg.Uploads.URLCacheSize})
	base.Println("build ended")
	return a, nil
}

func buildDisks(ctx context.Context, cfg *configuration.Config) (*disks.Manager, error) {
	signer := disks.NewURLSigner(cfg.Uploads.SigningKey)
	local, err := disks.NewLocalDisk(disks.LocalConfig{
		Name:       "public",
		Root:       cfg.Uploads.LocalRoot,
		BaseURL:    cfg.Uploads.LocalURL,
		Visibility: disks.ParseVisibility(cfg.Uploads.LocalVisibility),
		Signer:     signer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init local disk: %w", err)
	}
	manager := disks.NewManager(cfg.Uploads.DefaultDisk, local)

	if cfg.MinIO.Enabled {
		remote, err := disks.NewMinioDisk(ctx, disks.MinioConfig{
			Name:       "minio",
			Endpoint:   cfg.MinIO.Endpoint,
			AccessKey:  cfg.MinIO.AccessKey,
			SecretKey:  cfg.MinIO.SecretKey,
			BucketName: cfg.MinIO.BucketName,
			UseSSL:     cfg.MinIO.UseSSL,
			PublicURL:  cfg.MinIO.PublicURL,
			Visibility: disks.ParseVisibility(cfg.MinIO.Visibility),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init minio disk: %w", err)
		}
		manager.Add(remote)
	}

	if _, err := manager.Disk(""); err != nil {
		return nil, fmt.Errorf("default disk: %w", err)
	}
	return manager, nil
}

func buildStore(ctx context.Context, cfg *configuration.Config) (storage.Store, error) {
	switch cfg.MetadataStore {
	case "postgres":
		return storage.NewPostgresStorage(ctx, cfg.Database.ConnectionString())
	case "file":
		return storage.NewFileStorage(cfg.Uploads.MetadataFile)
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown metadata store %q", cfg.MetadataStore)
	}
}

// Router builds the gin engine serving the upload API.
func (a *App) Router() *gin.Engine {
	r := gin.Default()
	if a.Config.TraceEnabled {
		r.Use(gintrace.Middleware(serviceName))
	}
	api.RegisterRoutes(r, &handlers.Handler{
		Uploads: a.Uploads,
		Owners:  a.Owners,
		Disks:   a.Disks,
	}, promhttp.Handler())
	return r
}

// Run serves HTTP and consumes events until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.nats != nil {
		h := &uploadnats.Handlers{Uploads: a.Uploads, Owners: a.Owners}
		if err := a.nats.SubscribeAll(serviceName, uploadnats.Routes(h)); err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Println("Shutting down gracefully...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(stopCtx)
}

func (a *App) Close() {
	a.nats.Close()
	if err := a.store.Close(); err != nil {
		a.log.Printf("failed to close metadata store: %v", err)
	}
	if a.Config.TraceEnabled {
		tracer.Stop()
	}
}
