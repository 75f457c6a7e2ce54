package router

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"pet-med-tracker/internal/adapters/audit/logsink"
	"pet-med-tracker/internal/adapters/notify/webhook"
	mem "pet-med-tracker/internal/adapters/storage/memory"
	pg "pet-med-tracker/internal/adapters/storage/postgres"
	"pet-med-tracker/internal/domain/administrations"
	"pet-med-tracker/internal/domain/animals"
	"pet-med-tracker/internal/domain/cosign"
	"pet-med-tracker/internal/domain/inventory"
	"pet-med-tracker/internal/domain/regimens"
	"pet-med-tracker/internal/middleware"
	"pet-med-tracker/internal/platform/logger"
	"pet-med-tracker/internal/ports/auth"
	"pet-med-tracker/internal/ports/notify"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pet-med-tracker/docs"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger logger.Logger
}

// doseLogProxy rompe el ciclo de construcción entre regimens y
// administrations: el service de regímenes se crea primero apuntando acá, y
// el proxy se completa cuando el de administraciones existe.
type doseLogProxy struct {
	svc *administrations.Service
}

func (p *doseLogProxy) LastGivenAt(ctx context.Context, regimenID string) (*time.Time, error) {
	if p.svc == nil {
		return nil, nil
	}
	return p.svc.LastGivenAt(ctx, regimenID)
}

func (p *doseLogProxy) WasGiven(ctx context.Context, animalID, regimenID, localDay string, slotIndex int) (bool, error) {
	if p.svc == nil {
		return false, nil
	}
	return p.svc.WasGiven(ctx, animalID, regimenID, localDay, slotIndex)
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	var (
		aRepo  animals.Repository
		iRepo  inventory.Repository
		cRepo  cosign.Repository
		adRepo administrations.Repository
		rgRepo regimens.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("DB_DSN set but connection failed, using in-memory storage", logger.Err(err))
			}
		}
	}

	if db != nil {
		aRepo = pg.NewAnimalsRepo(db)
		rgRepo = pg.NewRegimensRepo(db)
		iRepo = pg.NewInventoryRepo(db)
		cRepo = pg.NewCoSignRepo(db)
		adRepo = pg.NewAdministrationsRepo(db)
	} else {
		aRepo = mem.NewAnimalsRepo()
		rgRepo = mem.NewRegimensRepo()
		memInv := mem.NewInventoryRepo()
		memCS := mem.NewCoSignRepo()
		iRepo = memInv
		cRepo = memCS
		adRepo = mem.NewAdministrationsRepo(memInv, memCS)
	}

	emitter := logsink.New(log)

	var notifier notify.Notifier = notify.Discard{}
	if url := os.Getenv("NOTIFY_WEBHOOK_URL"); url != "" {
		notifier = webhook.New(webhook.Config{
			URL:    url,
			APIKey: os.Getenv("NOTIFY_WEBHOOK_API_KEY"),
		}, log)
	}

	// Services por módulo. El proxy resuelve que regimens consulta el log de
	// dosis que mantiene administrations.
	animalsSvc := animals.NewService(aRepo)
	inventorySvc := inventory.NewService(iRepo)
	doseLog := &doseLogProxy{}
	regimensSvc := regimens.NewService(rgRepo, animalsSvc, doseLog, emitter)
	cosignSvc := cosign.NewService(cRepo, emitter)
	adminsSvc := administrations.NewService(adRepo, regimensSvc, animalsSvc, inventorySvc, emitter, notifier)
	doseLog.svc = adminsSvc

	// Rutas por módulo
	animals.RegisterRoutes(r, animalsSvc)
	regimens.RegisterRoutes(r, regimensSvc)
	inventory.RegisterRoutes(r, inventorySvc)
	administrations.RegisterRoutes(r, adminsSvc, cosignSvc)

	return r
}
