package server

import (
	"net/http"
	"strconv"

	"beatstore/config"
	"beatstore/core/session"
	"beatstore/core/upload"
	"beatstore/logger"
	"beatstore/model"
	"beatstore/repository"

	"github.com/gorilla/mux"
)

// recentBeatsLimit is how many beats the landing page shows.
const recentBeatsLimit = 8

// Handler composes the repositories, session manager and file intake behind
// the HTTP surface.
type Handler struct {
	userRepo     repository.UserRepository
	beatRepo     repository.BeatRepository
	purchaseRepo repository.PurchaseRepository
	intake       *upload.Intake
	sessions     *session.Manager
	renderer     *Renderer
	cfg          *config.Config
}

// NewHandler wires the handler dependencies.
func NewHandler(
	userRepo repository.UserRepository,
	beatRepo repository.BeatRepository,
	purchaseRepo repository.PurchaseRepository,
	intake *upload.Intake,
	sessions *session.Manager,
	renderer *Renderer,
	cfg *config.Config,
) *Handler {
	return &Handler{
		userRepo:     userRepo,
		beatRepo:     beatRepo,
		purchaseRepo: purchaseRepo,
		intake:       intake,
		sessions:     sessions,
		renderer:     renderer,
		cfg:          cfg,
	}
}

// RegisterRoutes attaches all application routes to the router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.withUser(h.IndexHandler)).Methods(http.MethodGet)

	router.HandleFunc("/register", h.withUser(h.RegisterPageHandler)).Methods(http.MethodGet)
	router.HandleFunc("/register", h.withUser(h.RegisterHandler)).Methods(http.MethodPost)
	router.HandleFunc("/login", h.withUser(h.LoginPageHandler)).Methods(http.MethodGet)
	router.HandleFunc("/login", h.withUser(h.LoginHandler)).Methods(http.MethodPost)
	router.HandleFunc("/logout", h.requireAuth(h.LogoutHandler)).Methods(http.MethodGet)

	router.HandleFunc("/profile", h.requireAuth(h.ProfileHandler)).Methods(http.MethodGet)
	router.HandleFunc("/upload", h.requireAuth(h.UploadPageHandler)).Methods(http.MethodGet)
	router.HandleFunc("/upload", h.requireAuth(h.UploadHandler)).Methods(http.MethodPost)

	router.HandleFunc("/beat/{id:[0-9]+}", h.withUser(h.BeatDetailHandler)).Methods(http.MethodGet)
	router.HandleFunc("/purchase/{id:[0-9]+}", h.requireAuth(h.PurchaseHandler)).Methods(http.MethodPost)

	router.HandleFunc("/marketplace", h.withUser(h.MarketplaceHandler)).Methods(http.MethodGet)
	router.HandleFunc("/search", h.withUser(h.SearchHandler)).Methods(http.MethodGet)

	router.HandleFunc("/audio/{filename}", h.requireAuth(h.ServeAudioHandler)).Methods(http.MethodGet)
	router.HandleFunc("/static/covers/{filename}", h.ServeCoverHandler).Methods(http.MethodGet)
}

// IndexHandler renders the landing page with the most recent beats.
func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	beats, err := h.beatRepo.ListRecent(r.Context(), recentBeatsLimit)
	if err != nil {
		logger.Error("Failed to load recent beats", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "index.html", viewData{"Beats": beats})
}

// MarketplaceHandler renders the paginated, filterable, sortable catalog.
func (h *Handler) MarketplaceHandler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	genre := r.URL.Query().Get("genre")
	sort := r.URL.Query().Get("sort")
	if sort == "" {
		sort = model.SortNewest
	}

	beats, total, err := h.beatRepo.Browse(r.Context(), genre, sort, page, repository.MarketplacePageSize)
	if err != nil {
		logger.Error("Failed to browse beats", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	genres, err := h.beatRepo.DistinctGenres(r.Context())
	if err != nil {
		logger.Error("Failed to load genres", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	totalPages := int((total + repository.MarketplacePageSize - 1) / repository.MarketplacePageSize)

	h.render(w, r, "marketplace.html", viewData{
		"Beats":        beats,
		"Genres":       genres,
		"CurrentGenre": genre,
		"CurrentSort":  sort,
		"Page":         page,
		"TotalPages":   totalPages,
		"HasPrev":      page > 1,
		"HasNext":      page < totalPages,
		"PrevPage":     page - 1,
		"NextPage":     page + 1,
	})
}

// SearchHandler renders substring search results over title, description
// and genre.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	beats, err := h.beatRepo.Search(r.Context(), query)
	if err != nil {
		logger.Error("Failed to search beats", logger.String("query", query), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "search.html", viewData{
		"Beats": beats,
		"Query": query,
	})
}

// BeatDetailHandler renders a beat's detail view, with purchased-only
// affordances when the current user owns an entitlement.
func (h *Handler) BeatDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	beat, err := h.beatRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("Failed to load beat", logger.Int64("beatId", id), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if beat == nil {
		http.NotFound(w, r)
		return
	}

	isPurchased := false
	if user := userFromContext(r.Context()); user != nil {
		isPurchased, err = h.purchaseRepo.Exists(r.Context(), user.ID, beat.ID)
		if err != nil {
			logger.Error("Failed to check purchase", logger.Int64("beatId", id), logger.ErrorField(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	h.render(w, r, "beat.html", viewData{
		"Beat":        beat,
		"IsPurchased": isPurchased,
	})
}

// ProfileHandler renders the current user's uploads and purchases.
func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	beats, err := h.beatRepo.ByUser(r.Context(), user.ID)
	if err != nil {
		logger.Error("Failed to load user beats", logger.Int64("userId", user.ID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	purchases, err := h.purchaseRepo.ByUser(r.Context(), user.ID)
	if err != nil {
		logger.Error("Failed to load purchases", logger.Int64("userId", user.ID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "profile.html", viewData{
		"Beats":     beats,
		"Purchases": purchases,
	})
}
