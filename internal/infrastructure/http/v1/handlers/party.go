package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
	"orderledger/internal/domain/orders"
	"orderledger/internal/domain/parties"
	"orderledger/internal/domain/reports"
	"orderledger/internal/infrastructure/export"
	"orderledger/internal/infrastructure/http/v1/dto"
	"orderledger/internal/infrastructure/storage/postgres"
)

// Reconciler recomputes a party's totals from its orders.
// Implemented by *orders.Service.
type Reconciler interface {
	Reconcile(ctx context.Context, partyID id.ID) (*orders.ReconcileReport, error)
}

// HistoryReader lists balance journal entries. Implemented by *postgres.Journal.
type HistoryReader interface {
	History(ctx context.Context, kind parties.Kind, partyID id.ID, limit int) ([]postgres.HistoryEntry, error)
}

// StatementReader builds party statements. Implemented by *reports.Service.
type StatementReader interface {
	Statement(ctx context.Context, kind parties.Kind, partyID id.ID) (*reports.Statement, error)
}

// PartyHandler handles customer or supplier endpoints.
type PartyHandler struct {
	*CatalogHandler[*parties.Party, dto.CreatePartyRequest, dto.UpdatePartyRequest]
	kind       parties.Kind
	reconciler Reconciler
	history    HistoryReader
	statements StatementReader
}

type partyCodec struct {
	kind     parties.Kind
	currency types.Currency
}

func (pc partyCodec) New(req dto.CreatePartyRequest) *parties.Party {
	return req.ToEntity(pc.kind, pc.currency)
}

func (pc partyCodec) Apply(req dto.UpdatePartyRequest, p *parties.Party) { req.ApplyTo(p) }

func (pc partyCodec) Render(p *parties.Party) any { return dto.FromParty(p) }

// PartyHandlerConfig configures the party handler.
type PartyHandlerConfig struct {
	Service    *parties.Service
	Reconciler Reconciler
	History    HistoryReader
	Statements StatementReader
}

// NewPartyHandler creates a handler for the kind of party cfg.Service manages.
func NewPartyHandler(base *BaseHandler, cfg PartyHandlerConfig) *PartyHandler {
	kind := cfg.Service.Kind()
	catalog := NewCatalogHandler[*parties.Party, dto.CreatePartyRequest, dto.UpdatePartyRequest](
		base, cfg.Service.CatalogService, partyCodec{kind: kind, currency: base.DefaultCurrency()},
	)

	return &PartyHandler{
		CatalogHandler: catalog,
		kind:           kind,
		reconciler:     cfg.Reconciler,
		history:        cfg.History,
		statements:     cfg.Statements,
	}
}

// Reconcile handles POST /{parties}/:id/reconcile.
func (h *PartyHandler) Reconcile(c *gin.Context) {
	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	report, err := h.reconciler.Reconcile(c.Request.Context(), partyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// History handles GET /{parties}/:id/history.
func (h *PartyHandler) History(c *gin.Context) {
	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	entries, err := h.history.History(c.Request.Context(), h.kind, partyID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// Statement handles GET /{parties}/:id/statement.xlsx.
func (h *PartyHandler) Statement(c *gin.Context) {
	partyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	st, err := h.statements.Statement(c.Request.Context(), h.kind, partyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	// rendered into memory so a failure still gets a JSON error
	var buf bytes.Buffer
	if err := export.WriteStatement(&buf, st); err != nil {
		h.Error(c, err)
		return
	}

	filename := fmt.Sprintf("%s-statement-%s.xlsx", h.kind, st.GeneratedAt.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}
