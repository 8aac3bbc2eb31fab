// Package api exposes reference data over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/rs/zerolog"
)

// ReferenceData is the read surface the handlers need. *refdata.DataService implements it.
type ReferenceData interface {
	GetComposers(ctx context.Context) ([]types.Composer, error)
	GetPeriods(ctx context.Context) ([]types.Period, error)
	GetForms(ctx context.Context) ([]types.MusicalForm, error)
	GetTerms(ctx context.Context) ([]types.Term, error)
	GetWeeklyAlbums(ctx context.Context) ([]types.WeeklyAlbum, error)
	GetMonthlySpotlights(ctx context.Context) ([]types.MonthlySpotlight, error)
	GetNewReleases(ctx context.Context) ([]types.NewRelease, error)
	GetConcertHalls(ctx context.Context) ([]types.ConcertHall, error)
	GetKickstartDays(ctx context.Context) ([]types.KickstartDay, error)

	GetComposerByID(ctx context.Context, id string) (types.Composer, bool, error)
	GetPeriodByID(ctx context.Context, id string) (types.Period, bool, error)
	GetFormByID(ctx context.Context, id string) (types.MusicalForm, bool, error)
	GetTermByID(ctx context.Context, id string) (types.Term, bool, error)
	GetWeeklyAlbumByID(ctx context.Context, id string) (types.WeeklyAlbum, bool, error)
	GetMonthlySpotlightByID(ctx context.Context, id string) (types.MonthlySpotlight, bool, error)
	GetNewReleaseByID(ctx context.Context, id string) (types.NewRelease, bool, error)
	GetConcertHallByID(ctx context.Context, id string) (types.ConcertHall, bool, error)
	GetKickstartDayByID(ctx context.Context, id string) (types.KickstartDay, bool, error)

	GetComposersByPeriod(ctx context.Context, periodID string) ([]types.Composer, error)
	GetTermsByCategory(ctx context.Context, category string) ([]types.Term, error)
	GetTermCategories(ctx context.Context) ([]string, error)
	SearchTerms(ctx context.Context, query string) ([]types.Term, error)
	GetWeeklyAlbumByWeek(ctx context.Context, week int) (types.WeeklyAlbum, bool, error)
	GetKickstartDay(ctx context.Context, day int) (types.KickstartDay, bool, error)

	ClearCache()
	ProviderName() string
}

// Handler serves the /v1 routes.
type Handler struct {
	data   ReferenceData
	logger zerolog.Logger
}

// NewHandler creates a handler over data.
func NewHandler(data ReferenceData, logger zerolog.Logger) *Handler {
	return &Handler{
		data:   data,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Mount registers the /v1 routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/composers", func(r chi.Router) {
			r.Get("/", h.handleListComposers)
			r.Get("/{id}", byID(h, "composer", h.data.GetComposerByID))
		})
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", list(h, h.data.GetPeriods))
			r.Get("/{id}", byID(h, "period", h.data.GetPeriodByID))
			r.Get("/{id}/composers", h.handlePeriodComposers)
		})
		r.Route("/forms", func(r chi.Router) {
			r.Get("/", list(h, h.data.GetForms))
			r.Get("/{id}", byID(h, "form", h.data.GetFormByID))
		})
		r.Route("/terms", func(r chi.Router) {
			r.Get("/", h.handleListTerms)
			r.Get("/categories", list(h, h.data.GetTermCategories))
			r.Get("/{id}", byID(h, "term", h.data.GetTermByID))
		})
		r.Route("/weekly-albums", func(r chi.Router) {
			r.Get("/", h.handleListWeeklyAlbums)
			r.Get("/{id}", byID(h, "weekly album", h.data.GetWeeklyAlbumByID))
		})
		r.Route("/monthly-spotlights", func(r chi.Router) {
			r.Get("/", list(h, h.data.GetMonthlySpotlights))
			r.Get("/{id}", byID(h, "monthly spotlight", h.data.GetMonthlySpotlightByID))
		})
		r.Route("/new-releases", func(r chi.Router) {
			r.Get("/", list(h, h.data.GetNewReleases))
			r.Get("/{id}", byID(h, "new release", h.data.GetNewReleaseByID))
		})
		r.Route("/concert-halls", func(r chi.Router) {
			r.Get("/", list(h, h.data.GetConcertHalls))
			r.Get("/{id}", byID(h, "concert hall", h.data.GetConcertHallByID))
		})
		r.Route("/kickstart-days", func(r chi.Router) {
			r.Get("/", h.handleListKickstartDays)
			r.Get("/{id}", byID(h, "kickstart day", h.data.GetKickstartDayByID))
		})
		r.Get("/provider", h.handleProvider)
		r.Post("/cache/clear", h.handleClearCache)
	})
}

func list[T any](h *Handler, load func(context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := load(r.Context())
		if err != nil {
			serviceError(w, err, h.logger)
			return
		}
		success(w, items, h.logger)
	}
}

func byID[T any](h *Handler, label string, find func(context.Context, string) (T, bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		item, ok, err := find(r.Context(), id)
		if err != nil {
			serviceError(w, err, h.logger)
			return
		}
		if !ok {
			failure(w, http.StatusNotFound, label+" not found", h.logger)
			return
		}
		success(w, item, h.logger)
	}
}

func (h *Handler) handleListComposers(w http.ResponseWriter, r *http.Request) {
	if period := r.URL.Query().Get("period"); period != "" {
		list(h, func(ctx context.Context) ([]types.Composer, error) {
			return h.data.GetComposersByPeriod(ctx, period)
		})(w, r)
		return
	}
	list(h, h.data.GetComposers)(w, r)
}

func (h *Handler) handlePeriodComposers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	list(h, func(ctx context.Context) ([]types.Composer, error) {
		return h.data.GetComposersByPeriod(ctx, id)
	})(w, r)
}

func (h *Handler) handleListTerms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("category") != "":
		category := q.Get("category")
		list(h, func(ctx context.Context) ([]types.Term, error) {
			return h.data.GetTermsByCategory(ctx, category)
		})(w, r)
	case q.Get("q") != "":
		query := q.Get("q")
		list(h, func(ctx context.Context) ([]types.Term, error) {
			return h.data.SearchTerms(ctx, query)
		})(w, r)
	default:
		list(h, h.data.GetTerms)(w, r)
	}
}

func (h *Handler) handleListWeeklyAlbums(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("week")
	if raw == "" {
		list(h, h.data.GetWeeklyAlbums)(w, r)
		return
	}
	week, err := strconv.Atoi(raw)
	if err != nil || week < 1 {
		failure(w, http.StatusBadRequest, "week must be a positive integer", h.logger)
		return
	}
	byNumber(h, "weekly album", week, h.data.GetWeeklyAlbumByWeek)(w, r)
}

func (h *Handler) handleListKickstartDays(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		list(h, h.data.GetKickstartDays)(w, r)
		return
	}
	day, err := strconv.Atoi(raw)
	if err != nil || day < 1 {
		failure(w, http.StatusBadRequest, "day must be a positive integer", h.logger)
		return
	}
	byNumber(h, "kickstart day", day, h.data.GetKickstartDay)(w, r)
}

func byNumber[T any](h *Handler, label string, n int, find func(context.Context, int) (T, bool, error)) http.HandlerFunc {
	return byID(h, label, func(ctx context.Context, _ string) (T, bool, error) {
		return find(ctx, n)
	})
}

func (h *Handler) handleProvider(w http.ResponseWriter, _ *http.Request) {
	success(w, map[string]string{"provider": h.data.ProviderName()}, h.logger)
}

func (h *Handler) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	h.data.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}
