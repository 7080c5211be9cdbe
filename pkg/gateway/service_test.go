package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"haracho/pkg/bot"
	"haracho/pkg/bus"
	"haracho/pkg/client"
	"haracho/pkg/config"
	"haracho/pkg/metrics"
	"haracho/pkg/service"
	"haracho/pkg/services"

	"github.com/stretchr/testify/require"
)

type recordingController struct {
	mu   sync.Mutex
	sent []string
}

func (c *recordingController) SendMessage(_ context.Context, channel client.TextChannel, content string) (client.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, content)
	return client.Message{ID: fmt.Sprintf("r%d", len(c.sent)), Content: content, Channel: channel}, nil
}

func (c *recordingController) replies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

// scriptedClient announces readiness, emits its messages, then idles until
// ctx is cancelled.
type scriptedClient struct {
	ctl      *recordingController
	messages []string
	done     chan struct{}
}

func (c *scriptedClient) Name() string {
	return "scripted"
}

func (c *scriptedClient) Run(ctx context.Context, emit client.Emit) error {
	emit(ctx, client.ReadyEvent(c.ctl))
	for i, content := range c.messages {
		emit(ctx, client.MessageEvent(client.Message{
			ID:      fmt.Sprintf("m%d", i),
			Content: content,
			Channel: client.TextChannel{ID: "c1"},
			Author:  client.User{ID: "1"},
		}))
	}
	close(c.done)
	<-ctx.Done()
	return nil
}

func newTestService(t *testing.T, c client.Client, gw config.GatewayConfig) (*Service, *bus.EventBus) {
	t.Helper()

	registry := metrics.NewRegistry()
	events := bus.NewEventBus()
	t.Cleanup(events.Close)

	b, err := bot.New(c, bot.Options{Prefix: "g!", Metrics: registry.Dispatch, Events: events}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	failing := service.NewBuilder().
		Name("BrokenService").
		Description("always fails").
		Timing(service.OnCommandCall("broken").Callback(func(service.LaunchArg) service.Service {
			return service.ServiceFunc(func(context.Context, client.Controller) error {
				return errors.New("boom")
			})
		}).MustBuild()).
		MustBuild()

	for _, desc := range append(services.Builtin(b.Prefix(), b.Services), failing) {
		require.NoError(t, b.Register(desc))
	}

	svc, err := NewService(gw, b, registry, events, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return svc, events
}

func TestGatewayServiceRunE2E(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := freeTCPPort(t)
	ctl := &recordingController{}
	scripted := &scriptedClient{
		ctl:      ctl,
		messages: []string{"g!ping", "g!broken", "g!role onlyname", "   "},
		done:     make(chan struct{}),
	}
	svc, _ := newTestService(t, scripted, config.GatewayConfig{Host: "127.0.0.1", Port: port})

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Run(ctx)
	}()

	select {
	case <-scripted.done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for scripted messages")
	}

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Equal(t, http.StatusOK, waitHTTPStatus(t, base+"/healthz", 2*time.Second))

	require.Eventually(t, func() bool {
		infos := fetchServices(t, base+"/services")
		return infos["PingService"].Launches == 1 &&
			infos["BrokenService"].Failures == 1 &&
			infos["RoleService"].ArgRejections == 1
	}, 2*time.Second, 25*time.Millisecond)

	require.Equal(t, http.StatusOK, waitHTTPStatus(t, base+"/readyz", 2*time.Second))

	infos := fetchServices(t, base+"/services")
	require.Equal(t, "boom", infos["BrokenService"].LastError)
	require.Equal(t, []string{"g!role <name> <target> [color]"}, infos["RoleService"].Usages)

	response, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.NoError(t, response.Body.Close())
	require.Contains(t, string(body), `haracho_services_launches_total{service="PingService",status="ok"} 1`)

	require.Equal(t, []string{"pong!"}, ctl.replies())

	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for service run to exit")
	}
}

func TestGatewayServiceStatusServerDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	disabled := false
	scripted := &scriptedClient{ctl: &recordingController{}, done: make(chan struct{})}
	svc, _ := newTestService(t, scripted, config.GatewayConfig{Enabled: &disabled, Host: "127.0.0.1", Port: freeTCPPort(t)})

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Run(ctx)
	}()

	<-scripted.done
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for service run to exit")
	}
}

func TestGatewayServiceServerBindFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	scripted := &scriptedClient{ctl: &recordingController{}, done: make(chan struct{})}
	svc, _ := newTestService(t, scripted, config.GatewayConfig{Host: "127.0.0.1", Port: port})

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Run(context.Background())
	}()

	select {
	case err := <-errCh:
		require.ErrorContains(t, err, "start status server")
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for bind failure")
	}
}

func TestReadyzBeforeRun(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &scriptedClient{ctl: &recordingController{}, done: make(chan struct{})}, config.GatewayConfig{})

	recorder := httptest.NewRecorder()
	svc.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	require.True(t, strings.Contains(recorder.Body.String(), `"not_ready"`))

	recorder = httptest.NewRecorder()
	svc.Router().ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	require.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestRecordAggregatesEvents(t *testing.T) {
	t.Parallel()

	svc := &Service{stats: make(map[string]*serviceStats)}
	now := time.Now().UTC()

	svc.record(bus.Event{Type: bus.EventMessageReceived})
	svc.record(bus.Event{Type: bus.EventMessageDiscarded})
	svc.record(bus.Event{Type: bus.EventContractViolation})
	svc.record(bus.Event{Type: bus.EventClientReady, At: now})
	svc.record(bus.Event{Type: bus.EventServiceLaunched, Service: "a", At: now})
	svc.record(bus.Event{Type: bus.EventServiceFailed, Service: "a", Error: "x", At: now})
	svc.record(bus.Event{Type: bus.EventArgsRejected, Service: "b", Error: "bad"})

	require.Equal(t, uint64(1), svc.received)
	require.Equal(t, uint64(1), svc.discarded)
	require.Equal(t, uint64(1), svc.violations)
	require.Equal(t, now, svc.lastReadyAt)
	require.Equal(t, serviceStats{Launches: 2, Failures: 1, LastError: "x", LastLaunchAt: now}, *svc.stats["a"])
	require.Equal(t, serviceStats{ArgRejections: 1, LastError: "bad"}, *svc.stats["b"])
}

func fetchServices(t *testing.T, url string) map[string]serviceInfo {
	t.Helper()

	response, err := http.Get(url)
	require.NoError(t, err)
	defer response.Body.Close()

	var infos []serviceInfo
	require.NoError(t, json.NewDecoder(response.Body).Decode(&infos))

	byName := make(map[string]serviceInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	return byName
}

func waitHTTPStatus(t *testing.T, url string, timeout time.Duration) int {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		response, err := http.Get(url)
		if err == nil {
			statusCode := response.StatusCode
			require.NoError(t, response.Body.Close())
			return statusCode
		}

		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s: %v", url, err)
		}

		time.Sleep(25 * time.Millisecond)
	}
}

func freeTCPPort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	addr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return addr.Port
}
