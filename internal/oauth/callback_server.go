package oauth

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"loopauth/pkg/logging"
)

const callbackSubsystem = "CallbackServer"

// shutdownGracePeriod bounds how long Stop waits for open connections,
// including browser preconnects that never send a request, before Close.
const shutdownGracePeriod = 500 * time.Millisecond

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

var (
	successTmpl = template.Must(template.New("success").Parse(callbackSuccessHTML))
	errorTmpl   = template.Must(template.New("error").Parse(callbackErrorHTML))
)

var successGlyphs = []string{"🎉", "👍", "👍🏿", "🥳", "🎈"}

// CallbackServer is a single-use loopback HTTP server that receives the
// provider's redirect. The first request on the callback path is processed;
// it exchanges the code inline, renders the result for the browser and then
// stops the server.
type CallbackServer struct {
	cfg       FlowConfig
	exchanger Exchanger
	resolve   func(CallbackOutcome) bool

	addr     string
	server   *http.Server
	listener net.Listener

	baseCtx    context.Context
	cancelBase context.CancelFunc

	latch    sync.Once
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewCallbackServer creates a callback server for cfg. resolve is called with
// the outcome of the first callback; it reports whether that outcome won.
func NewCallbackServer(cfg FlowConfig, exchanger Exchanger, resolve func(CallbackOutcome) bool) *CallbackServer {
	return &CallbackServer{
		cfg:       cfg,
		exchanger: exchanger,
		resolve:   resolve,
		stopped:   make(chan struct{}),
	}
}

// Listen binds the redirect URI's host and port. The returned error is a
// *BindError when the address is unavailable.
func (s *CallbackServer) Listen(ctx context.Context) error {
	addr, err := s.cfg.CallbackAddr()
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return &BindError{Addr: addr, Err: err}
	}

	s.addr = listener.Addr().String()
	s.listener = listener
	s.baseCtx, s.cancelBase = context.WithCancel(context.WithoutCancel(ctx))

	path := s.cfg.CallbackPath()
	if path == "/" {
		path = "/{$}"
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, s.handleCallback)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       3 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.baseCtx },
	}
	return nil
}

// Serve runs the accept loop until the server is stopped. It returns nil
// after a normal Stop.
func (s *CallbackServer) Serve() error {
	if s.server == nil {
		return errors.New("callback server is not listening")
	}
	logging.Debug(callbackSubsystem, "Serving OAuth callback on http://%s%s", s.addr, s.cfg.CallbackPath())

	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("callback server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down. It is safe to call more than once, from any
// goroutine other than a request handler, before or after Serve.
func (s *CallbackServer) Stop() {
	s.stopOnce.Do(func() {
		defer close(s.stopped)
		if s.server == nil {
			return
		}
		s.cancelBase()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			logging.Debug(callbackSubsystem, "Graceful shutdown incomplete, closing: %v", err)
			_ = s.server.Close()
		}
		_ = s.listener.Close()
		logging.Debug(callbackSubsystem, "Callback server on %s stopped", s.addr)
	})
}

// Stopped is closed once Stop has completed.
func (s *CallbackServer) Stopped() <-chan struct{} {
	return s.stopped
}

// Addr returns the bound address, or "" before Listen.
func (s *CallbackServer) Addr() string {
	return s.addr
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	handled := false
	s.latch.Do(func() {
		handled = true
		s.processCallback(w, r)
	})

	if !handled {
		logging.Debug(callbackSubsystem, "Ignoring duplicate callback request")
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

// processCallback runs exactly once per server.
func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)

	outcome := s.handleQuery(w, r)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	if !s.resolve(outcome) {
		logging.Debug(callbackSubsystem, "Callback outcome %s arrived after the flow was resolved", outcome.Kind)
	}

	// Shutdown waits for this handler to return, so it must not run here.
	go s.Stop()
}

// handleQuery writes the browser response and returns the session outcome.
func (s *CallbackServer) handleQuery(w http.ResponseWriter, r *http.Request) CallbackOutcome {
	query := r.URL.Query()

	if query.Has("error") {
		outcome := CallbackOutcome{
			Kind:        OutcomeProviderError,
			Error:       query.Get("error"),
			Description: query.Get("error_description"),
		}
		logging.Warn(callbackSubsystem, "Provider returned error %q: %s", outcome.Error, outcome.Description)
		renderError(w, outcome.Error, outcome.Description)
		return outcome
	}

	if s.cfg.State != "" && query.Get("state") != s.cfg.State {
		logging.Warn(callbackSubsystem, "OAuth state mismatch detected (expected length %d, received length %d)",
			len(s.cfg.State), len(query.Get("state")))
		return s.reject(w, "state_mismatch", "The state parameter did not match the authorization request.")
	}

	code := query.Get("code")
	if code == "" {
		return s.reject(w, "invalid_request", "The callback did not include an authorization code.")
	}

	result, err := s.exchanger.Exchange(s.baseCtx, s.cfg, code)
	if err != nil {
		logging.Error(callbackSubsystem, err, "Token exchange failed")
		renderError(w, "transport_error", err.Error())
		return CallbackOutcome{Kind: OutcomeTransportFailure, Detail: err.Error()}
	}

	if result.StatusCode >= http.StatusBadRequest {
		logging.Warn(callbackSubsystem, "Token endpoint returned status %d", result.StatusCode)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(result.StatusCode)
		_, _ = w.Write(result.Body)
		return CallbackOutcome{Kind: OutcomeSuccess, Code: code, Token: result}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successTmpl.Execute(w, map[string]string{
		"Glyph": successGlyphs[rand.Intn(len(successGlyphs))],
	})
	return CallbackOutcome{Kind: OutcomeSuccess, Code: code, Token: result}
}

func (s *CallbackServer) reject(w http.ResponseWriter, code, description string) CallbackOutcome {
	renderError(w, code, description)
	return CallbackOutcome{Kind: OutcomeProviderError, Error: code, Description: description}
}

func renderError(w http.ResponseWriter, code, description string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_ = errorTmpl.Execute(w, map[string]string{
		"Error":       code,
		"Description": description,
	})
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
}
