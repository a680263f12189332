package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/elys-network/lstvault/internal/chain"
	"github.com/elys-network/lstvault/internal/engine"
	"github.com/elys-network/lstvault/internal/logger"
	"github.com/elys-network/lstvault/internal/observability/metrics"
	"github.com/elys-network/lstvault/internal/state"
	"github.com/elys-network/lstvault/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

const maxBodyBytes = 1 << 20

// Chain is the executor the API drives. *engine.Executor implements it.
type Chain interface {
	Execute(ctx context.Context, tx engine.Tx) (*engine.Result, error)
	Query(contract string, msg json.RawMessage, now uint64) (json.RawMessage, error)
	Contracts() []string
	Height() int64
}

// History serves stored transactions. state.History implements it.
type History interface {
	RecentTransactions(ctx context.Context, contract string, limit int) ([]state.Transaction, error)
	ExchangeRates(ctx context.Context, contract string, limit int) ([]state.RateRecord, error)
	ActionCounts(ctx context.Context) ([]state.ActionCount, error)
	Healthy() error
}

// Options configures NewWebServer. Only Chain is required.
type Options struct {
	Port           string
	AllowedOrigins []string
	Chain          Chain
	History        History
	Custody        chain.BalanceSource
	// Clock returns the block time of requests that do not carry one.
	Clock func() uint64
}

// WebServer exposes the contracts over HTTP.
type WebServer struct {
	router *mux.Router
	opts   Options
}

// NewWebServer creates a new web server instance
func NewWebServer(opts Options) *WebServer {
	if opts.Port == "" {
		opts.Port = "8080"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Clock == nil {
		opts.Clock = func() uint64 { return uint64(time.Now().Unix()) }
	}

	server := &WebServer{
		router: mux.NewRouter(),
		opts:   opts,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/contracts", ws.handleContracts).Methods("GET")
	api.HandleFunc("/contracts/{contract}/query", ws.handleQuery).Methods("GET", "POST")
	api.HandleFunc("/contracts/{contract}/execute", ws.handleExecute).Methods("POST")
	api.HandleFunc("/transactions", ws.handleTransactions).Methods("GET")
	api.HandleFunc("/exchange-rates/{contract}", ws.handleExchangeRates).Methods("GET")
	api.HandleFunc("/actions", ws.handleActions).Methods("GET")
	api.HandleFunc("/custody/{address}/{denom}", ws.handleCustody).Methods("GET")

	ws.router.Use(ws.loggingMiddleware)
}

// Handler returns the router wrapped in the CORS policy.
func (ws *WebServer) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: ws.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}).Handler(ws.router)
}

// Start serves until ctx is done.
func (ws *WebServer) Start(ctx context.Context) error {
	webLogger.Info().Str("port", ws.opts.Port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.opts.Port,
		Handler:      ws.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleHealth reports the executor height and whether the optional database answers.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "OK", http.StatusOK
	dbHealthy := true
	if ws.opts.History != nil {
		if err := ws.opts.History.Healthy(); err != nil {
			dbHealthy = false
			status, code = "DEGRADED", http.StatusServiceUnavailable
		}
	}

	ws.writeJSONResponse(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"height":    ws.opts.Chain.Height(),
		"contracts": len(ws.opts.Chain.Contracts()),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
		},
		"database": map[string]interface{}{
			"configured": ws.opts.History != nil,
			"healthy":    dbHealthy,
		},
	})
}

func (ws *WebServer) handleContracts(w http.ResponseWriter, r *http.Request) {
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"contracts": ws.opts.Chain.Contracts(),
		"height":    ws.opts.Chain.Height(),
	})
}

// handleQuery reads the query from the msg parameter on GET and from the body on POST.
func (ws *WebServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	contract := mux.Vars(r)["contract"]

	var msg json.RawMessage
	if r.Method == http.MethodGet {
		msg = json.RawMessage(r.URL.Query().Get("msg"))
	} else {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			ws.writeBadRequest(w, "failed to read request body")
			return
		}
		msg = body
	}
	if !json.Valid(msg) {
		ws.writeBadRequest(w, "query must be a JSON object")
		return
	}

	now, err := ws.timeParam(r)
	if err != nil {
		ws.writeBadRequest(w, "invalid time")
		return
	}
	res, err := ws.opts.Chain.Query(contract, msg, now)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

// ExecuteRequest is the body of the execute endpoint. Time defaults to the server clock.
type ExecuteRequest struct {
	Sender string          `json:"sender"`
	Msg    json.RawMessage `json:"msg"`
	Funds  []types.Asset   `json:"funds,omitempty"`
	Time   uint64          `json:"time,omitempty"`
}

func (ws *WebServer) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		ws.writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Sender == "" || len(req.Msg) == 0 {
		ws.writeBadRequest(w, "sender and msg are required")
		return
	}
	if req.Time == 0 {
		req.Time = ws.opts.Clock()
	}

	res, err := ws.opts.Chain.Execute(r.Context(), engine.Tx{
		Sender:   req.Sender,
		Contract: mux.Vars(r)["contract"],
		Msg:      req.Msg,
		Funds:    req.Funds,
		Time:     req.Time,
	})
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !ws.requireHistory(w) {
		return
	}
	txs, err := ws.opts.History.RecentTransactions(r.Context(), r.URL.Query().Get("contract"), limitParam(r))
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent transactions")
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

func (ws *WebServer) handleExchangeRates(w http.ResponseWriter, r *http.Request) {
	if !ws.requireHistory(w) {
		return
	}
	contract := mux.Vars(r)["contract"]
	rates, err := ws.opts.History.ExchangeRates(r.Context(), contract, limitParam(r))
	if err != nil {
		webLogger.Error().Err(err).Str("contract", contract).Msg("Failed to get exchange rates")
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"contract":       contract,
		"exchange_rates": rates,
	})
}

func (ws *WebServer) handleActions(w http.ResponseWriter, r *http.Request) {
	if !ws.requireHistory(w) {
		return
	}
	counts, err := ws.opts.History.ActionCounts(r.Context())
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get action counts")
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"actions": counts})
}

// handleCustody reads a balance held on the node rather than in the engine.
func (ws *WebServer) handleCustody(w http.ResponseWriter, r *http.Request) {
	if ws.opts.Custody == nil {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, ErrorResponse{ErrorCode: 1, Message: "node balance source is not configured"})
		return
	}
	vars := mux.Vars(r)
	amount, err := ws.opts.Custody.Balance(r.Context(), vars["address"], vars["denom"])
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to query node balance")
		ws.writeError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, struct {
		Address string      `json:"address"`
		Denom   string      `json:"denom"`
		Amount  sdkmath.Int `json:"amount"`
	}{vars["address"], vars["denom"], amount})
}

func (ws *WebServer) requireHistory(w http.ResponseWriter) bool {
	if ws.opts.History == nil {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, ErrorResponse{ErrorCode: 1, Message: "transaction history is not configured"})
		return false
	}
	return true
}

func (ws *WebServer) timeParam(r *http.Request) (uint64, error) {
	s := r.URL.Query().Get("time")
	if s == "" {
		return ws.opts.Clock(), nil
	}
	return strconv.ParseUint(s, 10, 64)
}

func limitParam(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return limit
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// loggingMiddleware logs HTTP requests and records their duration.
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		timer := metrics.StartHttpRequestDurationTimer(endpoint)

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)
		timer(wrapper.statusCode)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
