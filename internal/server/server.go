package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/budget-alert-relay/pkg/alerts"
	"github.com/ogulcanaydogan/budget-alert-relay/pkg/model"
)

const defaultMaxBodySize = 1 << 20

// Server exposes the dispatcher over HTTP.
type Server struct {
	dispatcher  *alerts.Dispatcher
	settings    alerts.Settings
	maxBodySize int64
	client      *http.Client
	verifier    *SNSVerifier
	mux         *http.ServeMux
	logger      *slog.Logger
}

// NewServer creates an HTTP front end for the dispatcher. client is used to
// confirm SNS subscriptions. A nil verifier fetches signing certificates with
// client and checks them against the system roots.
func NewServer(d *alerts.Dispatcher, settings alerts.Settings, maxBodySize int64, client *http.Client, verifier *SNSVerifier, logger *slog.Logger) *Server {
	if client == nil {
		client = http.DefaultClient
	}
	if verifier == nil {
		verifier = NewSNSVerifier(HTTPCertFetcher(client, nil))
	}
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	s := &Server{
		dispatcher:  d,
		settings:    settings,
		maxBodySize: maxBodySize,
		client:      client,
		verifier:    verifier,
		mux:         http.NewServeMux(),
		logger:      logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/events", s.handleEvents)
	s.mux.HandleFunc("POST /sns", s.handleSNS)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var ev model.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid event: %v", err))
		return
	}

	s.dispatch(context.WithoutCancel(r.Context()), w, &ev)
}

func (s *Server) handleSNS(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var msg snsMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid sns message: %v", err))
		return
	}

	switch msg.Type {
	case "Notification", "SubscriptionConfirmation":
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported sns message type %q", msg.Type))
		return
	}

	if err := s.verifier.verify(r.Context(), msg); err != nil {
		s.logger.Warn("rejected sns message", "type", msg.Type, "topic", msg.TopicArn, "error", err)
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	switch msg.Type {
	case "Notification":
		s.dispatch(context.WithoutCancel(r.Context()), w, msg.event())
	case "SubscriptionConfirmation":
		if err := s.confirmSubscription(r.Context(), msg.SubscribeURL); err != nil {
			s.logger.Error("confirm sns subscription", "topic", msg.TopicArn, "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.logger.Info("sns subscription confirmed", "topic", msg.TopicArn)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) dispatch(ctx context.Context, w http.ResponseWriter, ev *model.Event) {
	err := s.dispatcher.Handle(ctx, ev, s.settings)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, alerts.ErrMissingWebhookURL):
		s.logger.Error("relay misconfigured", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) confirmSubscription(ctx context.Context, subscribeURL string) error {
	if subscribeURL == "" {
		return errors.New("missing SubscribeURL")
	}
	if err := CheckSNSURL(subscribeURL); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subscribeURL, nil)
	if err != nil {
		return fmt.Errorf("create confirmation request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("confirm subscription: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("subscription confirmation returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
