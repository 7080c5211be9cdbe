package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"haracho/pkg/bot"
	"haracho/pkg/bus"
	"haracho/pkg/config"
	"haracho/pkg/metrics"

	"github.com/gorilla/mux"
)

const (
	eventBuffer     = 256
	shutdownTimeout = 5 * time.Second
)

// Service runs the bot next to an HTTP status server and keeps per-service
// counters fed from the lifecycle bus.
type Service struct {
	cfg      config.GatewayConfig
	bot      *bot.Bot
	registry *metrics.Registry
	events   *bus.EventBus
	log      *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastReadyAt time.Time
	received    uint64
	discarded   uint64
	violations  uint64
	stats       map[string]*serviceStats
}

type serviceStats struct {
	Launches      uint64    `json:"launches"`
	Failures      uint64    `json:"failures"`
	ArgRejections uint64    `json:"arg_rejections"`
	LastError     string    `json:"last_error,omitempty"`
	LastLaunchAt  time.Time `json:"last_launch_at,omitzero"`
}

type statusResponse struct {
	Status             string `json:"status"`
	Client             string `json:"client"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	LastReadyAt        string `json:"last_ready_at,omitempty"`
	MessagesReceived   uint64 `json:"messages_received"`
	MessagesDiscarded  uint64 `json:"messages_discarded"`
	ContractViolations uint64 `json:"contract_violations"`
}

type serviceInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Usages      []string `json:"usages"`
	serviceStats
}

func NewService(cfg config.GatewayConfig, b *bot.Bot, registry *metrics.Registry, events *bus.EventBus, log *slog.Logger) (*Service, error) {
	if b == nil {
		return nil, errors.New("bot is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		cfg:      cfg,
		bot:      b,
		registry: registry,
		events:   events,
		log:      log.With("component", "gateway.service"),
		stats:    make(map[string]*serviceStats),
	}, nil
}

// Run blocks until the bot stops, the status server fails or ctx is done.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	if s.events != nil {
		events, unsubscribe := s.events.SubscribeEvents(ctx, eventBuffer)
		defer unsubscribe()
		go s.collect(events)
	}

	serverErrors := make(chan error, 1)
	if s.cfg.IsEnabled() {
		go s.runStatusServer(ctx, serverErrors)
	} else {
		s.log.Info("Gateway status server disabled")
	}

	botErrors := make(chan error, 1)
	go func() {
		botErrors <- s.bot.Run(ctx)
	}()

	select {
	case err := <-botErrors:
		return err
	case err := <-serverErrors:
		cancel()
		if botErr := <-botErrors; botErr != nil {
			s.log.Error("Bot stopped with error", "error", botErr)
		}
		return err
	}
}

func (s *Service) collect(events <-chan bus.Event) {
	for event := range events {
		s.record(event)
	}
}

func (s *Service) record(event bus.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case bus.EventClientReady:
		s.lastReadyAt = event.At
	case bus.EventMessageReceived:
		s.received++
	case bus.EventMessageDiscarded:
		s.discarded++
	case bus.EventContractViolation:
		s.violations++
	case bus.EventServiceLaunched:
		st := s.statsFor(event.Service)
		st.Launches++
		st.LastLaunchAt = event.At
	case bus.EventServiceFailed:
		st := s.statsFor(event.Service)
		st.Launches++
		st.Failures++
		st.LastLaunchAt = event.At
		st.LastError = event.Error
	case bus.EventArgsRejected:
		st := s.statsFor(event.Service)
		st.ArgRejections++
		st.LastError = event.Error
	}
}

func (s *Service) statsFor(name string) *serviceStats {
	st, ok := s.stats[name]
	if !ok {
		st = &serviceStats{}
		s.stats[name] = st
	}
	return st
}

// Router returns the status server routes.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/services", s.handleServices).Methods(http.MethodGet)
	if s.registry != nil {
		r.Handle("/metrics", s.registry.Handler()).Methods(http.MethodGet)
	}
	return r
}

func (s *Service) runStatusServer(ctx context.Context, errCh chan<- error) {
	addr := s.cfg.Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.currentStatus("ok"))
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondJSON(w, statusCode, s.currentStatus(status))
}

func (s *Service) handleServices(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.serviceInfos())
}

func (s *Service) respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) isReady() bool {
	return s.bot.Running() && s.bot.Ready()
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	lastReady := ""
	if !s.lastReadyAt.IsZero() {
		lastReady = s.lastReadyAt.Format(time.RFC3339)
	}

	return statusResponse{
		Status:             status,
		Client:             s.bot.ClientName(),
		UptimeSeconds:      uptime,
		LastReadyAt:        lastReady,
		MessagesReceived:   s.received,
		MessagesDiscarded:  s.discarded,
		ContractViolations: s.violations,
	}
}

func (s *Service) serviceInfos() []serviceInfo {
	prefix := s.bot.Prefix()
	descriptors := s.bot.Services()

	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]serviceInfo, 0, len(descriptors))
	for _, desc := range descriptors {
		info := serviceInfo{Name: desc.Name(), Description: desc.Description()}
		for _, cond := range desc.Timings() {
			info.Usages = append(info.Usages, cond.Usage(prefix))
		}
		if st, ok := s.stats[desc.Name()]; ok {
			info.serviceStats = *st
		}
		infos = append(infos, info)
	}
	return infos
}
