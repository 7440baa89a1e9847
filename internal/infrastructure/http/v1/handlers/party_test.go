package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/core/apperror"
	"orderledger/internal/core/id"
	"orderledger/internal/core/types"
	"orderledger/internal/domain/orders"
	"orderledger/internal/domain/parties"
	"orderledger/internal/domain/reports"
	"orderledger/internal/infrastructure/export"
	"orderledger/internal/infrastructure/http/v1/middleware"
	"orderledger/internal/infrastructure/storage/postgres"
)

type fakeReconciler struct{ report *orders.ReconcileReport }

func (f fakeReconciler) Reconcile(ctx context.Context, partyID id.ID) (*orders.ReconcileReport, error) {
	r := *f.report
	r.PartyID = partyID
	return &r, nil
}

type fakeHistory struct {
	kind  parties.Kind
	limit int
}

func (f *fakeHistory) History(ctx context.Context, kind parties.Kind, partyID id.ID, limit int) ([]postgres.HistoryEntry, error) {
	f.kind, f.limit = kind, limit
	return []postgres.HistoryEntry{{PartyID: partyID, Kind: kind, Action: parties.JournalAdjust}}, nil
}

type fakeStatements struct{ known id.ID }

func (f fakeStatements) Statement(ctx context.Context, kind parties.Kind, partyID id.ID) (*reports.Statement, error) {
	if partyID != f.known {
		return nil, apperror.NewNotFound(string(kind), partyID.String())
	}
	return &reports.Statement{
		PartyID:     partyID,
		Kind:        kind,
		Name:        "Acme",
		Currency:    types.DefaultCurrency,
		TotalPaid:   types.MustMoney("50"),
		TotalDue:    types.MustMoney("150"),
		GeneratedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func newPartyRouter(known id.ID, history *fakeHistory) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	h := NewPartyHandler(NewBaseHandler(types.DefaultCurrency), PartyHandlerConfig{
		Service: parties.NewService(parties.Config{Kind: parties.KindCustomer}),
		Reconciler: fakeReconciler{report: &orders.ReconcileReport{
			Kind:          parties.KindCustomer,
			OrdersChecked: 3,
			Drift:         parties.Balance{Paid: types.MustMoney("10"), Due: types.Zero()},
		}},
		History:    history,
		Statements: fakeStatements{known: known},
	})
	g := r.Group("/customers")
	g.POST("/:id/reconcile", h.Reconcile)
	g.GET("/:id/history", h.History)
	g.GET("/:id/statement.xlsx", h.Statement)
	return r
}

func TestPartyHandler_Reconcile(t *testing.T) {
	partyID := id.New()
	w := do(newPartyRouter(partyID, &fakeHistory{}), http.MethodPost, "/customers/"+partyID.String()+"/reconcile", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, partyID.String(), body["partyId"])
	assert.EqualValues(t, 3, body["ordersChecked"])
}

func TestPartyHandler_History(t *testing.T) {
	partyID := id.New()
	history := &fakeHistory{}
	r := newPartyRouter(partyID, history)

	w := do(r, http.MethodGet, "/customers/"+partyID.String()+"/history?limit=20", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, parties.KindCustomer, history.kind)
	assert.Equal(t, 20, history.limit)

	w = do(r, http.MethodGet, "/customers/"+partyID.String()+"/history?limit=9999", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartyHandler_Statement(t *testing.T) {
	partyID := id.New()
	r := newPartyRouter(partyID, &fakeHistory{})

	w := do(r, http.MethodGet, "/customers/"+partyID.String()+"/statement.xlsx", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "customer-statement-20260301.xlsx")
	// xlsx files are zip archives
	assert.Equal(t, "PK", w.Body.String()[:2])

	w = do(r, http.MethodGet, "/customers/"+id.New().String()+"/statement.xlsx", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
