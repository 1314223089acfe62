package api

import (
	"errors"
	"sort"
	"time"

	models "AfriPulse/internal/domain/models"
	domrepo "AfriPulse/internal/domain/repository"
	"AfriPulse/internal/notify"
	"AfriPulse/internal/usecase"
	pkgcache "AfriPulse/pkg/cache"
	xhttp "AfriPulse/pkg/http"
	xlogger "AfriPulse/pkg/logger"
	"AfriPulse/pkg/queue"
	"AfriPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// DemographicsEchoHandler serves the read-only result sets from the latest
// published snapshot. Nothing here recomputes; a request either reads the
// snapshot or triggers a refresh cycle.
type DemographicsEchoHandler struct {
	logger    *xlogger.Logger
	cache     domrepo.SnapshotCache
	store     domrepo.ObservationStore
	refresher *usecase.Refresher
	queue     queue.QueueService
	hub       *notify.Hub

	// local caches on-demand pyramids; the precomputed result sets come
	// straight from the snapshot and need no extra layer.
	local    pkgcache.Service
	localTTL time.Duration
}

func NewDemographicsEchoHandler(
	logger *xlogger.Logger,
	cache domrepo.SnapshotCache,
	store domrepo.ObservationStore,
	refresher *usecase.Refresher,
	q queue.QueueService,
	hub *notify.Hub,
	local pkgcache.Service,
	localTTL time.Duration,
) *DemographicsEchoHandler {
	return &DemographicsEchoHandler{
		logger:    logger,
		cache:     cache,
		store:     store,
		refresher: refresher,
		queue:     q,
		hub:       hub,
		local:     local,
		localTTL:  localTTL,
	}
}

func (h *DemographicsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/indicators", h.Indicators)
	g.GET("/resolved", h.Resolved)
	g.GET("/aggregates", h.Aggregates)
	g.GET("/clusters", h.Clusters)
	g.GET("/pyramid", h.Pyramid)
	g.POST("/refresh", h.Refresh)

	e.GET("/ws/refresh", h.SubscribeRefresh)
	e.GET("/healthz", h.Health)
}

// snapshot fetches the latest snapshot or fails with a typed 404.
func (h *DemographicsEchoHandler) snapshot(c echo.Context) (*models.Snapshot, error) {
	snap, err := h.cache.Get(c.Request().Context())
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, xhttp.NotFoundError("no snapshot published yet")
		}
		h.logger.Error("snapshot load error", xlogger.Error(err))
		return nil, xhttp.InternalError("snapshot unavailable").WithError(err)
	}
	if snap == nil {
		return nil, xhttp.NotFoundError("no snapshot published yet")
	}
	return snap, nil
}

func (h *DemographicsEchoHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, err := h.snapshot(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	if req.Country != "" {
		country, ok := util.NormalizeISO3(req.Country)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid country code %q", req.Country))
		}
		year := req.Year
		if year == 0 {
			year = snap.ToYear
		}
		rec, found := snap.BestRecord(country, year, req.MaxYearsBack)
		if !found {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no record for %s near %d", country, year))
		}
		return xhttp.SuccessResponse(c, rec)
	}

	if req.Year != 0 {
		rows := make([]models.IndicatorRecord, 0, 64)
		for _, rec := range snap.Records {
			if rec.Year == req.Year {
				rows = append(rows, rec)
			}
		}
		return xhttp.ListResponse(c, rows, int64(len(rows)))
	}
	return xhttp.ListResponse(c, snap.Records, int64(len(snap.Records)))
}

// resolvedCellView is the wire form of one resolved cell for the API.
type resolvedCellView struct {
	Country    string            `json:"country"`
	Year       int               `json:"year"`
	Value      *float64          `json:"value"`
	Provenance models.Provenance `json:"provenance"`
}

func (h *DemographicsEchoHandler) Resolved(c echo.Context) error {
	req := &models.ResolvedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !models.KnownIndicator(req.Indicator) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unknown indicator %q", req.Indicator))
	}

	snap, err := h.snapshot(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	series := snap.Resolved[req.Indicator]
	if series == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("indicator %s not in snapshot", req.Indicator))
	}

	var countryFilter string
	if req.Country != "" {
		country, ok := util.NormalizeISO3(req.Country)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid country code %q", req.Country))
		}
		countryFilter = country
	}

	cells := make([]resolvedCellView, 0, len(series.Cells))
	for key, rv := range series.Cells {
		if countryFilter != "" && key.Country != countryFilter {
			continue
		}
		view := resolvedCellView{Country: key.Country, Year: key.Year, Provenance: rv.Provenance}
		if rv.Provenance != models.ProvMissing {
			v := rv.Value
			view.Value = &v
		}
		cells = append(cells, view)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Country != cells[j].Country {
			return cells[i].Country < cells[j].Country
		}
		return cells[i].Year < cells[j].Year
	})
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"indicator": series.Indicator,
		"cells":     cells,
	})
}

func (h *DemographicsEchoHandler) Aggregates(c echo.Context) error {
	req := &models.AggregatesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, err := h.snapshot(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if req.Year != 0 {
		for _, agg := range snap.Aggregates {
			if agg.Year == req.Year {
				return xhttp.SuccessResponse(c, agg)
			}
		}
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no aggregate for year %d", req.Year))
	}
	return xhttp.ListResponse(c, snap.Aggregates, int64(len(snap.Aggregates)))
}

func (h *DemographicsEchoHandler) Clusters(c echo.Context) error {
	snap, err := h.snapshot(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if snap.Clusters == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("clustering not available in snapshot"))
	}
	return xhttp.SuccessResponse(c, snap.Clusters)
}

func (h *DemographicsEchoHandler) Pyramid(c echo.Context) error {
	req := &models.PyramidRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	country, ok := util.NormalizeISO3(req.Country)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid country code %q", req.Country))
	}

	snap, err := h.snapshot(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if req.Year < snap.FromYear || req.Year > snap.ToYear {
		return xhttp.AppErrorResponse(c,
			xhttp.BadRequestErrorf("year %d outside snapshot range [%d, %d]", req.Year, snap.FromYear, snap.ToYear))
	}

	// latest-year pyramids are precomputed in the snapshot
	if req.Year == snap.ToYear {
		for _, p := range snap.Pyramids {
			if p.Country == country {
				return xhttp.SuccessResponse(c, p)
			}
		}
	}

	key := pkgcache.GenerateKeyWithParams("pyramid", country, req.Year, snap.GeneratedAt.Unix())
	if h.local != nil {
		var cached models.AgePyramidDistribution
		if err := h.local.Get(c.Request().Context(), key, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		}
	}

	pyramid := h.refresher.PyramidFor(country, req.Year, snap.Resolved, snap.Records)
	if h.local != nil {
		if err := h.local.Set(c.Request().Context(), key, pyramid, h.localTTL); err != nil {
			h.logger.Warn("pyramid cache write error", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, pyramid)
}

// refreshSummary is what POST /api/refresh returns; the snapshot itself is
// served by the read endpoints, not echoed back here.
type refreshSummary struct {
	Queued      bool      `json:"queued"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
	Records     int       `json:"records,omitempty"`
	Pyramids    int       `json:"pyramids,omitempty"`
	ClusterK    int       `json:"cluster_k,omitempty"`
}

func (h *DemographicsEchoHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Async && h.queue != nil {
		err := h.queue.PublishMessage(c.Request().Context(), usecase.RefreshJobType,
			usecase.RefreshJobPayload{Reason: "api"})
		if err != nil {
			h.logger.Error("refresh enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("failed to enqueue refresh").WithError(err))
		}
		return xhttp.SuccessResponse(c, refreshSummary{Queued: true})
	}

	snap, err := h.refresher.Refresh(c.Request().Context())
	if err != nil {
		h.logger.Error("refresh cycle error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("refresh failed").WithError(err))
	}
	out := refreshSummary{
		GeneratedAt: snap.GeneratedAt,
		Records:     len(snap.Records),
		Pyramids:    len(snap.Pyramids),
	}
	if snap.Clusters != nil {
		out.ClusterK = snap.Clusters.K
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *DemographicsEchoHandler) SubscribeRefresh(c echo.Context) error {
	if err := h.hub.ServeWS(c.Response(), c.Request()); err != nil {
		h.logger.Error("websocket upgrade error", xlogger.Error(err))
		return err
	}
	return nil
}

func (h *DemographicsEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("storage unhealthy").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
