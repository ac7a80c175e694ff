package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"inventory-engine/internal/config"
	catalogRepo "inventory-engine/internal/domains/catalog/repository"
	ledgerHandler "inventory-engine/internal/domains/ledger/handler"
	ledgerJob "inventory-engine/internal/domains/ledger/job"
	ledgerService "inventory-engine/internal/domains/ledger/service"
	pickingHandler "inventory-engine/internal/domains/picking/handler"
	pickingModel "inventory-engine/internal/domains/picking/model"
	pickingService "inventory-engine/internal/domains/picking/service"
	putawayHandler "inventory-engine/internal/domains/putaway/handler"
	putawayModel "inventory-engine/internal/domains/putaway/model"
	putawayService "inventory-engine/internal/domains/putaway/service"
	slottingHandler "inventory-engine/internal/domains/slotting/handler"
	slottingService "inventory-engine/internal/domains/slotting/service"
	"inventory-engine/internal/domains/uom"
	infraCache "inventory-engine/internal/infrastructure/cache"
	"inventory-engine/internal/infrastructure/database"
	"inventory-engine/internal/storage"
	"inventory-engine/internal/storage/postgres"
	"inventory-engine/pkg/cache"
	pkgdb "inventory-engine/pkg/database"
	"inventory-engine/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph shared by the API, the
// worker and ledgerctl. Every field is a singleton for the process lifetime.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	Tuning      config.Tuning
	DB          *database.PostgresDB
	Redis       *infraCache.RedisClient
	Cache       cache.Cache
	AsynqClient *asynq.Client
	JWTManager  *jwt.Manager

	// ========================================
	// REPOSITORY LAYER (DATA ACCESS)
	// ========================================
	CatalogRepo catalogRepo.Repository
	Store       storage.Store

	// ========================================
	// SERVICE LAYER (BUSINESS LOGIC)
	// ========================================
	Resolver        *uom.Resolver
	LedgerService   *ledgerService.LedgerService
	BalanceExporter *ledgerService.BalanceExporter
	PutawayService  *putawayService.PutawayService
	PickingService  *pickingService.PickingService
	SlottingService *slottingService.SlottingService
	VelocityCache   *slottingService.VelocityCache

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================
	LedgerHandler   *ledgerHandler.Handler
	ExportHandler   *ledgerHandler.ExportHandler
	PutawayHandler  *putawayHandler.Handler
	PickingHandler  *pickingHandler.Handler
	SlottingHandler *slottingHandler.Handler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer wires the whole graph. source tags the ledger events this
// process publishes ("api", "worker", "ledgerctl").
//
// Order matters:
// 1. Config and tuning
// 2. Infrastructure (DB, Redis, queue client)
// 3. Repositories
// 4. Services
// 5. Handlers
func NewContainer(source string) (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	tuning, err := config.LoadTuning(cfg.Engine.TuningFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load tuning: %w", err)
	}
	c.Tuning = tuning
	log.Printf("✅ Config loaded (Environment: %s, tuning: %s)", cfg.App.Environment, cfg.Engine.TuningFile)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	log.Println("🗄️  Connecting to PostgreSQL...")

	db, err := ConnectDatabase(context.Background())
	if err != nil {
		return nil, err
	}
	c.DB = db
	log.Println("✅ Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE AND QUEUE
	// ========================================
	log.Println("🔴 Connecting to Redis...")

	c.Redis = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(context.Background()); err != nil {
		// Stock summaries and velocity classes are derived data; the ledger
		// works without them.
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
	} else {
		log.Println("✅ Redis connected")
	}
	c.Cache = infraCache.NewRedisCache(c.Redis.Client)
	c.AsynqClient = asynq.NewClient(c.RedisClientOpt())

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	// ========================================
	// STEP 4: INITIALIZE REPOSITORIES
	// ========================================
	log.Println("📦 Initializing repositories...")
	c.initRepositories()
	log.Println("✅ Repositories initialized")

	// ========================================
	// STEP 5: INITIALIZE SERVICES
	// ========================================
	log.Println("⚙️  Initializing services...")
	c.initServices(source)
	log.Println("✅ Services initialized")

	// ========================================
	// STEP 6: INITIALIZE HANDLERS
	// ========================================
	log.Println("🎯 Initializing handlers...")
	c.initHandlers()
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ConnectDatabase opens and pings the pool described by the DB_* variables.
func ConnectDatabase(ctx context.Context) (*database.PostgresDB, error) {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	return db, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.CatalogRepo = catalogRepo.NewRepository(pool)
	c.Store = postgres.NewStore(pool, StorageOptions(c.Config.Engine))
}

func (c *Container) initServices(source string) {
	c.Resolver = uom.NewResolver(c.CatalogRepo)

	// Every committed posting refreshes the item's cached stock summary.
	notifier := ledgerJob.NewQueueNotifier(c.AsynqClient, source)
	c.LedgerService = ledgerService.NewService(c.Store, c.CatalogRepo, c.Resolver, notifier)
	c.BalanceExporter = ledgerService.NewBalanceExporter(c.Store, c.CatalogRepo)

	c.SlottingService = slottingService.NewService(
		c.CatalogRepo,
		c.Store,
		slottingService.NewLedgerMovements(c.Store),
		SlottingSettings(c.Tuning.Slotting),
	)
	c.VelocityCache = slottingService.NewVelocityCache(c.Cache)

	c.PutawayService = putawayService.NewService(
		c.Store,
		c.CatalogRepo,
		c.Resolver,
		c.LedgerService,
		PutawaySettings(c.Tuning),
		putawayService.WithVelocitySource(c.VelocityCache),
	)

	c.PickingService = pickingService.NewService(
		c.Store,
		c.CatalogRepo,
		c.Resolver,
		c.LedgerService,
		PickingDefaults(c.Tuning.Picking),
	)
}

func (c *Container) initHandlers() {
	c.LedgerHandler = ledgerHandler.NewHandler(c.LedgerService)
	c.ExportHandler = ledgerHandler.NewExportHandler(c.BalanceExporter)
	c.PutawayHandler = putawayHandler.NewHandler(c.PutawayService)
	c.PickingHandler = pickingHandler.NewHandler(c.PickingService)
	c.SlottingHandler = slottingHandler.NewHandler(c.SlottingService)
}

// ========================================
// HELPER METHODS
// ========================================

// RedisClientOpt is the asynq view of the Redis settings.
func (c *Container) RedisClientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// SlottingSites parses JOB_SLOTTING_SITES.
func (c *Container) SlottingSites() ([]uuid.UUID, error) {
	return ParseSites(c.Config.Jobs.SlottingSites)
}

// ParseSites parses site ids, rejecting the first malformed one.
func ParseSites(raw []string) ([]uuid.UUID, error) {
	sites := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid site id %q: %w", s, err)
		}
		sites = append(sites, id)
	}
	return sites, nil
}

// StorageOptions maps the engine settings onto the unit-of-work policy.
func StorageOptions(e config.EngineConfig) storage.Options {
	return storage.Options{
		Retry: pkgdb.RetryPolicy{
			MaxAttempts: e.TxMaxAttempts,
			BaseDelay:   e.TxBaseDelay,
			MaxDelay:    e.TxMaxDelay,
		},
		Timeout: e.OperationTimeout,
	}
}

func PutawaySettings(t config.Tuning) putawayService.Settings {
	w := t.Putaway.Weights
	return putawayService.Settings{
		DefaultStrategy: putawayModel.Strategy(t.Putaway.DefaultStrategy),
		Weights: putawayService.ScoringWeights{
			Base:       w.Base,
			HoldsItem:  w.HoldsItem,
			ZoneMatch:  w.ZoneMatch,
			QtyPenalty: w.QtyPenalty,
			BinPenalty: w.BinPenalty,
		},
		CategoryZones: t.Putaway.CategoryZones,
		DefaultZone:   t.Putaway.DefaultZone,
		VelocityZones: t.Slotting.VelocityZones,
	}
}

func PickingDefaults(p config.PickingTuning) pickingService.Defaults {
	return pickingService.Defaults{
		Wave: pickingModel.WaveConfig{
			MaxOrders:   p.MaxOrders,
			MaxLines:    p.MaxLines,
			MaxQuantity: p.MaxQuantity,
		},
		Strategy: pickingModel.Strategy(p.DefaultStrategy),
	}
}

func SlottingSettings(s config.SlottingTuning) slottingService.Settings {
	return slottingService.Settings{
		WindowDays:    s.WindowDays,
		DefaultPolicy: s.ABCPolicy,
		Threshold:     slottingService.ThresholdPolicy{A: s.AThreshold, B: s.BThreshold},
		Percentile:    slottingService.PercentilePolicy{A: s.AShare, B: s.BShare},
		VelocityZones: s.VelocityZones,
	}
}

// Cleanup releases pools and clients. Safe on a partially built container.
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close queue client: %v", err)
		}
	}

	if c.DB != nil && c.DB.Pool != nil {
		c.DB.Close()
		log.Println("✅ Database connections closed")
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		} else {
			log.Println("✅ Redis connections closed")
		}
	}

	log.Println("✅ Container cleanup completed")
}
