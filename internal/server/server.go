// Package server exposes the acceptance-link verification endpoint. The
// protocol is stateless per request: the signed token is the whole
// authorization, and replaying a consumed token is harmless because the
// underlying transition no-ops once the record has left "sent".
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/seedscout/outreach/internal/outreach"
	"github.com/seedscout/outreach/internal/token"
)

// User-facing responses, plain strings rather than structured bodies. The
// "invalid or expired" message deliberately conflates a replayed link with a
// link that never matched anything.
const (
	msgSuccess          = "Thank you! Both confirmation emails and connection emails are sent successfully."
	msgInvestorMailFail = "Thank you! But the confirmation email was not sent to the investor."
	msgFounderMailFail  = "Thank you! But the confirmation email was not sent to the founder."
	msgDetailsFail      = "Thank you! Both confirmation emails are sent! But we encountered an error while fetching data."
	msgConnectionFail   = "Thank you! Both confirmation emails are sent! But we encountered an error while connecting to the founder."
	msgNoOpenOutreach   = "Invalid or expired link."
	msgExpired          = "Link expired."
	msgInvalidToken     = "Invalid token."
	msgGenericError     = "An error occurred while processing the acceptance."
)

// Verifier checks a raw acceptance token
type Verifier interface {
	Verify(raw string) (*token.Payload, error)
}

// Acceptor performs the acceptance transition and cascade
type Acceptor interface {
	Accept(ctx context.Context, p *token.Payload) (outreach.AcceptResult, error)
}

// Server serves the acceptance link endpoint
type Server struct {
	verifier Verifier
	acceptor Acceptor
	logger   *slog.Logger
	http     *http.Server
}

// New creates the acceptance server listening on addr
func New(addr string, verifier Verifier, acceptor Acceptor, logger *slog.Logger) *Server {
	s := &Server{
		verifier: verifier,
		acceptor: acceptor,
		logger:   logger.With("component", "accept_server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/accept_investor", s.handleAccept)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the context is cancelled, then shuts down
// gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("acceptance server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")

	payload, err := s.verifier.Verify(raw)
	switch {
	case errors.Is(err, token.ErrExpired):
		s.logger.Info("expired acceptance link")
		writePlain(w, msgExpired)
		return
	case err != nil:
		s.logger.Info("invalid acceptance token")
		writePlain(w, msgInvalidToken)
		return
	}

	result, err := s.acceptor.Accept(r.Context(), payload)
	if err != nil {
		s.logger.Error("acceptance failed", "investor_email", payload.InvestorEmail, "error", err)
		writePlain(w, msgGenericError)
		return
	}

	writePlain(w, acceptMessage(result))
}

// acceptMessage maps a cascade outcome to the user-facing string. The first
// failed step wins; the transition itself is already committed by this point.
func acceptMessage(r outreach.AcceptResult) string {
	switch {
	case !r.Transitioned:
		return msgNoOpenOutreach
	case !r.InvestorMailOK:
		return msgInvestorMailFail
	case !r.FounderMailOK:
		return msgFounderMailFail
	case !r.DetailsFound:
		return msgDetailsFail
	case !r.ConnectionOK:
		return msgConnectionFail
	default:
		return msgSuccess
	}
}

func writePlain(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, msg)
}
