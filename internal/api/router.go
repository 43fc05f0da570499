package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/erazemk/orodjarna/internal/audit"
	"github.com/erazemk/orodjarna/internal/auth"
	"github.com/erazemk/orodjarna/internal/ledger"
	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/pictures"
)

// Prefix is the path every endpoint is served under.
const Prefix = "/inventory/api/v1.0"

// Options wires the router to its collaborators. Clock defaults to time.Now.
type Options struct {
	DB       *sqlx.DB
	Pictures pictures.Store
	Secret   *auth.SharedSecret
	TokenKey string
	Clock    func() time.Time
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	l := ledger.New(opts.DB)
	e := audit.New(opts.DB)
	if opts.Clock != nil {
		l.Clock, e.Clock = opts.Clock, opts.Clock
	}

	authHandler := &AuthHandler{DB: opts.DB, TokenKey: opts.TokenKey}
	devicesHandler := &DevicesHandler{DB: opts.DB}
	itemsHandler := &ItemsHandler{DB: opts.DB, Pictures: opts.Pictures}
	usersHandler := &UsersHandler{DB: opts.DB, Pictures: opts.Pictures}
	placementHandler := &PlacementHandler{DB: opts.DB}
	toolshedHandler := &ToolshedHandler{Ledger: l}
	presenceHandler := &PresenceHandler{Ledger: l}
	inventoryHandler := &InventoryHandler{Audits: e}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route(Prefix, func(r chi.Router) {
		r.Use(AuthMiddleware(opts.Secret, opts.TokenKey, opts.DB))

		r.Post("/auth/token", authHandler.Token)
		r.Post("/auth/logout", authHandler.Logout)

		r.Get("/registered-devices/{androidID}", devicesHandler.GetUser)
		r.Post("/registered-devices/{androidID}/{barcodeID}", devicesHandler.Register)
		r.Get("/unregistered-devices", devicesHandler.ListUnregistered)
		r.Put("/unregistered-devices/{androidID}", devicesHandler.Announce)

		r.Get("/items", itemsHandler.List)
		r.Get("/items/{barcodeID}", itemsHandler.Get)
		r.Post("/items/{barcodeID}", itemsHandler.Upsert)
		r.Get("/item-picture/{barcodeID}", itemsHandler.GetPicture)
		r.Post("/item-picture/{barcodeID}", itemsHandler.UploadPicture)

		r.Get("/users", usersHandler.List)
		r.Post("/users", usersHandler.Upsert)
		r.Get("/users/{barcodeID}", usersHandler.Get)
		r.Get("/user-picture/{barcodeID}", usersHandler.GetPicture)
		r.Post("/user-picture/{barcodeID}", usersHandler.UploadPicture)

		r.Get("/full-location/{itemID}", placementHandler.FullLocation)
		r.Get("/item-parent/{itemID}", placementHandler.Parent)
		r.Get("/items-not-in-containers", placementHandler.NotInContainers)
		for path, kind := range map[string]model.EdgeKind{
			"/containers": model.EdgeContainer,
			"/vehicles":   model.EdgeVehicle,
			"/locations":  model.EdgeLocation,
		} {
			r.Get(path+"/{holderID}", placementHandler.Held(kind))
			r.Post(path+"/{holderID}", placementHandler.Place(kind))
			r.Delete(path+"/{holderID}/{itemID}", placementHandler.Remove(kind))
		}

		r.Post("/toolshed-checkout", toolshedHandler.Checkout)
		r.Get("/toolshed-checkout/{itemID}/last-outstanding", toolshedHandler.LastOutstanding)
		r.Post("/toolshed-checkin", toolshedHandler.Checkin)
		r.Get("/toolshed-history/{itemID}", toolshedHandler.History)
		r.Get("/users/{barcodeID}/toolshed-checkout-outstanding", toolshedHandler.OutstandingByUser)
		r.Get("/users-toolshed-checkout-outstanding", toolshedHandler.UsersWithOutstanding)

		r.Post("/user-checkin/{userID}", presenceHandler.Record(model.PresenceCheckin))
		r.Post("/user-checkout/{userID}", presenceHandler.Record(model.PresenceCheckout))
		r.Get("/users-checkedin", presenceHandler.Present)

		r.Get("/inventory-events", inventoryHandler.List)
		r.Post("/inventory-events", inventoryHandler.Start)
		r.Patch("/inventory-events", inventoryHandler.Complete)
		r.Get("/inventory-events/{inventoryID}", inventoryHandler.Get)
		r.Get("/inventory-events/{inventoryID}/summary", inventoryHandler.Summary)
		r.Post("/inventoried-items", inventoryHandler.Observe)
		r.Get("/inventoried-items/{inventoryID}/{itemID}", inventoryHandler.Observation)
		r.Get("/inventoried-items-uninventoried/{inventoryID}", inventoryHandler.NotYetScanned)
		r.Get("/inventoried-items-not-in-containers/{inventoryID}", inventoryHandler.OutsideContainers)
		r.Get("/inventoried-items-in-container/{inventoryID}/{containerID}", inventoryHandler.InContainer)
		r.Get("/inventoried-items-not-good/{inventoryID}", inventoryHandler.NotGood)
	})

	return r
}
