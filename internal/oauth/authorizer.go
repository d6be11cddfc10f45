package oauth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"loopauth/pkg/logging"
)

const authorizerSubsystem = "Authorizer"

// DefaultCallbackTimeout is how long a flow waits for the provider's redirect.
const DefaultCallbackTimeout = 300 * time.Second

// Authorizer runs the authorization-code flow against a loopback callback
// server. Each call to Run is an independent session; an Authorizer may be
// reused but not for concurrent flows on the same redirect address.
type Authorizer struct {
	exchanger   Exchanger
	validator   ResponseValidator
	openBrowser func(string) error
	onListening func(authURL string)
}

// AuthorizerOption configures an Authorizer.
type AuthorizerOption func(*Authorizer)

// WithExchanger sets the code exchanger. Defaults to a TokenExchanger.
func WithExchanger(e Exchanger) AuthorizerOption {
	return func(a *Authorizer) {
		a.exchanger = e
	}
}

// WithValidator sets the token response validator. Defaults to ValidateStatusOK.
func WithValidator(v ResponseValidator) AuthorizerOption {
	return func(a *Authorizer) {
		a.validator = v
	}
}

// WithBrowserOpener replaces the function used to open the authorization URL.
// Passing nil disables opening a browser.
func WithBrowserOpener(open func(string) error) AuthorizerOption {
	return func(a *Authorizer) {
		a.openBrowser = open
	}
}

// WithListeningHook registers a function called once the callback server is
// bound, before the browser is opened.
func WithListeningHook(fn func(authURL string)) AuthorizerOption {
	return func(a *Authorizer) {
		a.onListening = fn
	}
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(opts ...AuthorizerOption) *Authorizer {
	a := &Authorizer{
		exchanger:   NewTokenExchanger(),
		validator:   ValidateStatusOK,
		openBrowser: OpenBrowser,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run performs one authorization-code round trip and blocks until the
// provider redirects back, the timeout elapses or ctx is cancelled.
//
// Errors are typed: *BindError, *AuthDeniedError, *AuthTimeoutError,
// *AuthTransportError, *TokenValidationError, or an error wrapping ctx.Err().
func (a *Authorizer) Run(ctx context.Context, cfg FlowConfig, timeout time.Duration) (*TokenResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}

	sess := newSession()
	listener := NewCallbackServer(cfg, a.exchanger, sess.resolve)
	if err := listener.Listen(ctx); err != nil {
		return nil, err
	}

	authURL := cfg.AuthorizationURL()
	if a.onListening != nil {
		a.onListening(authURL)
	}
	a.launchBrowser(authURL)

	logging.Info(authorizerSubsystem, "Waiting for OAuth callback at %s (timeout %s). Press Ctrl+C to abort.",
		cfg.RedirectURI, timeout)

	guard := NewTimeoutGuard()
	guard.Start(timeout, func() {
		if sess.resolve(CallbackOutcome{Kind: OutcomeTimedOut}) {
			logging.Warn(authorizerSubsystem, "No OAuth callback received within %s, stopping callback server", timeout)
		}
		listener.Stop()
	})

	serveErr := a.serve(ctx, listener, sess)
	guard.Cancel()

	outcome := sess.result()
	if outcome.Kind == OutcomeNone {
		detail := "callback server stopped without receiving a callback"
		if serveErr != nil {
			detail = serveErr.Error()
		}
		outcome = CallbackOutcome{Kind: OutcomeTransportFailure, Detail: detail}
	}
	return a.finish(ctx, outcome, timeout, serveErr)
}

// serve blocks on the accept loop. A watcher stops the listener when ctx is
// cancelled; it is released as soon as serving ends.
func (a *Authorizer) serve(ctx context.Context, listener *CallbackServer, sess *session) error {
	serveCtx, serveDone := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(serveCtx)

	g.Go(func() error {
		defer serveDone()
		err := listener.Serve()
		if err != nil {
			sess.resolve(CallbackOutcome{Kind: OutcomeTransportFailure, Detail: err.Error()})
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil && sess.resolve(CallbackOutcome{Kind: OutcomeInterrupted}) {
			logging.Info(authorizerSubsystem, "OAuth flow interrupted, stopping callback server")
		}
		listener.Stop()
		return nil
	})

	return g.Wait()
}

func (a *Authorizer) launchBrowser(authURL string) {
	if a.openBrowser == nil {
		logging.Info(authorizerSubsystem, "Open this URL in your browser to authenticate:\n%s", authURL)
		return
	}
	if err := a.openBrowser(authURL); err != nil {
		launchErr := &BrowserLaunchError{URL: authURL, Err: err}
		logging.Warn(authorizerSubsystem, "%v. Open this URL in your browser to authenticate:\n%s", launchErr, authURL)
	}
}

func (a *Authorizer) finish(ctx context.Context, outcome CallbackOutcome, timeout time.Duration, serveErr error) (*TokenResult, error) {
	switch outcome.Kind {
	case OutcomeSuccess:
		if a.validator != nil {
			if err := a.validator(outcome.Token); err != nil {
				res := outcome.Token
				if res == nil {
					res = &TokenResult{}
				}
				return nil, &TokenValidationError{StatusCode: res.StatusCode, Body: res.Body, Reason: err}
			}
		}
		logging.Info(authorizerSubsystem, "OAuth authentication successful")
		return outcome.Token, nil

	case OutcomeProviderError:
		return nil, &AuthDeniedError{Code: outcome.Error, Description: outcome.Description}

	case OutcomeTimedOut:
		return nil, &AuthTimeoutError{Timeout: timeout}

	case OutcomeInterrupted:
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		return nil, fmt.Errorf("authentication interrupted: %w", err)

	default:
		return nil, &AuthTransportError{Detail: outcome.Detail, Err: serveErr}
	}
}
