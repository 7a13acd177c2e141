package router

import (
	"net/http"

	"github.com/senyabanana/bid-tracker/internal/auth"
	"github.com/senyabanana/bid-tracker/internal/handlers"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers - обработчики всех групп маршрутов.
type Handlers struct {
	Ping      http.Handler
	Bids      *handlers.BidHandler
	Clients   *handlers.ClientHandler
	Settings  *handlers.SettingsHandler
	Finance   *handlers.FinanceHandler
	Portal    *handlers.PortalHandler
	Scheduler *handlers.SchedulerHandler
}

// InitRoutes регистрирует маршруты. API консультанта требует JWT с ролью
// consultant или admin, портал - роль client, ссылка из письма открыта,
// запуск планировщика закрыт общим секретом.
func InitRoutes(h Handlers, verifier *auth.Verifier, schedulerToken string) http.Handler {
	mux := http.NewServeMux()

	consultant := func(f http.HandlerFunc) http.Handler {
		return verifier.Middleware(f, auth.RoleConsultant, auth.RoleAdmin)
	}
	client := func(f http.HandlerFunc) http.Handler {
		return verifier.Middleware(f, auth.RoleClient)
	}

	mux.Handle("/api/ping", h.Ping)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /api/clients/new", consultant(h.Clients.CreateClient))
	mux.Handle("GET /api/clients", consultant(h.Clients.ListClients))
	mux.Handle("GET /api/clients/{clientId}", consultant(h.Clients.GetClient))
	mux.Handle("PATCH /api/clients/{clientId}", consultant(h.Clients.EditClient))
	mux.Handle("DELETE /api/clients/{clientId}", consultant(h.Clients.DeleteClient))
	mux.Handle("PUT /api/clients/{clientId}/active", consultant(h.Clients.SetActive))
	mux.Handle("POST /api/clients/{clientId}/token", consultant(h.Clients.RotateToken))
	mux.Handle("PUT /api/clients/{clientId}/portal-user", consultant(h.Clients.LinkPortalUser))

	mux.Handle("POST /api/bids/new", consultant(h.Bids.CreateBid))
	mux.Handle("GET /api/bids", consultant(h.Bids.ListBids))
	mux.Handle("GET /api/bids/stats", consultant(h.Bids.Stats))
	mux.Handle("GET /api/bids/{bidId}", consultant(h.Bids.GetBid))
	mux.Handle("PATCH /api/bids/{bidId}", consultant(h.Bids.EditBid))
	mux.Handle("DELETE /api/bids/{bidId}", consultant(h.Bids.DeleteBid))
	mux.Handle("PUT /api/bids/{bidId}/status", consultant(h.Bids.UpdateBidStatus))
	mux.Handle("PUT /api/bids/{bidId}/settlement", consultant(h.Bids.UpdateSettlement))
	mux.Handle("POST /api/bids/{bidId}/attachments", consultant(h.Bids.UploadAttachment))
	mux.Handle("POST /api/bids/{bidId}/summary", consultant(h.Bids.SendSummary))

	mux.Handle("GET /api/settings", consultant(h.Settings.GetSettings))
	mux.Handle("PUT /api/settings", consultant(h.Settings.SaveSettings))

	mux.Handle("GET /api/finance/summary", consultant(h.Finance.GetSummary))

	mux.Handle("POST /api/scheduler/reminders", auth.SchedulerMiddleware(schedulerToken, http.HandlerFunc(h.Scheduler.RunReminders)))

	mux.Handle("GET /api/portal/bids", client(h.Portal.GetPortal))
	mux.Handle("POST /api/portal/bids/{bidId}/decision", client(h.Portal.SubmitDecision))
	mux.HandleFunc("GET /api/portal/{token}", h.Portal.GetPortalByToken)
	mux.HandleFunc("POST /api/portal/{token}/bids/{bidId}/decision", h.Portal.SubmitDecisionByToken)

	return mux
}
