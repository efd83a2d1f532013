package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"finboard/internal/core"
	"finboard/internal/services"
)

type serviceKey struct{}

// listView is what a list page renders: the snapshot plus loading and
// deletion state.
type listView struct {
	Kind         core.Kind            `json:"kind"`
	Loading      bool                 `json:"loading"`
	Transactions []transactionRow     `json:"transactions"`
	FetchedAt    time.Time            `json:"fetched_at"`
	Generation   uint64               `json:"generation"`
	Deletion     core.DeletionRequest `json:"deletion"`
}

// transactionRow adds the display fields a list row shows next to the
// canonical transaction.
type transactionRow struct {
	core.Transaction
	Initials      string `json:"initials"`
	DisplayAmount string `json:"display_amount"`
}

func rowsOf(txs []core.Transaction) []transactionRow {
	rows := make([]transactionRow, len(txs))
	for i, tx := range txs {
		rows[i] = transactionRow{
			Transaction:   tx,
			Initials:      core.Initials(tx.Label),
			DisplayAmount: core.FormatAmount(strconv.FormatFloat(tx.Amount, 'f', -1, 64)),
		}
	}
	return rows
}

func (s *Server) withService(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		svc := s.dash.Service(core.Kind(chi.URLParam(r, "kind")))
		if svc == nil {
			NotFound("Unknown transaction kind.").Write(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), serviceKey{}, svc)))
	})
}

func service(r *http.Request) *services.TransactionService {
	return r.Context().Value(serviceKey{}).(*services.TransactionService)
}

func viewOf(svc *services.TransactionService) listView {
	snap := svc.Snapshot()
	return listView{
		Kind:         svc.Kind(),
		Loading:      svc.Loading(),
		Transactions: rowsOf(snap.Transactions),
		FetchedAt:    snap.FetchedAt,
		Generation:   snap.Generation,
		Deletion:     svc.Deletion(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	NewResponse().Data(s.dash.Overview(parseLimit(r.URL.Query(), "recent", s.recent))).Write(w)
}

func (s *Server) handleDashboardRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Refresh(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(s.dash.Overview(s.recent)).Write(w)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	NewResponse().Data(viewOf(service(r))).Write(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	svc := service(r)
	if err := svc.FetchAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(viewOf(svc)).Write(w)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	svc := service(r)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequest("Invalid request format.").Write(w)
		return
	}

	if err := svc.Add(r.Context(), p.Candidate(svc.Kind())); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Success(svc.Kind().Title() + " added successfully").
		Data(viewOf(svc)).
		Write(w)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	NewResponse().Data(service(r).Series()).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	svc := service(r)
	location, err := svc.ExportDownload(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Data(map[string]string{
		"file":     svc.Kind().ExportFilename(),
		"location": location,
	}).Write(w)
}

func (s *Server) handleRequestDelete(w http.ResponseWriter, r *http.Request) {
	svc := service(r)
	if !svc.RequestDelete(chi.URLParam(r, "id")) {
		BadRequest("Nothing selected to delete.").Write(w)
		return
	}
	NewResponse().Status(http.StatusAccepted).Data(svc.Deletion()).Write(w)
}

func (s *Server) handleDeletion(w http.ResponseWriter, r *http.Request) {
	NewResponse().Data(service(r).Deletion()).Write(w)
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	svc := service(r)
	pending := svc.Deletion().Pending
	if err := svc.ConfirmDelete(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	resp := NewResponse().Data(viewOf(svc))
	if pending {
		resp.Success(svc.Kind().Title() + " details deleted successfully")
	}
	resp.Write(w)
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	svc := service(r)
	svc.CancelDelete()
	NewResponse().Data(svc.Deletion()).Write(w)
}
