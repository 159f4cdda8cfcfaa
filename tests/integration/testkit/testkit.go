package testkit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/sha1n/lexsearch/internal/app"
)

// Service represents a test service that can be started and stopped
type Service interface {
	Start() (map[string]any, error)
	Stop() error
	GetName() string
}

// TestEnv manages the lifecycle of test services
type TestEnv struct {
	services   []Service
	properties map[string]any
}

// NewTestEnv creates a new test environment with the given services
func NewTestEnv(services ...Service) *TestEnv {
	return &TestEnv{
		services:   services,
		properties: make(map[string]any),
	}
}

// Start starts services in order and merges the properties they publish.
func (e *TestEnv) Start() (map[string]any, error) {
	for _, s := range e.services {
		props, err := s.Start()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.GetName(), err)
		}
		for k, v := range props {
			e.properties[k] = v
		}
	}
	return e.properties, nil
}

// Stop stops services in reverse order and returns the last error.
func (e *TestEnv) Stop() error {
	var lastErr error
	for i := len(e.services) - 1; i >= 0; i-- {
		if err := e.services[i].Stop(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// GetProperty returns a property published by a started service.
func (e *TestEnv) GetProperty(name string) (any, bool) {
	val, ok := e.properties[name]
	return val, ok
}

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	return getFreePortWithAddr("localhost:0")
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

func getFreePortWithAddr(addrStr string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", addrStr)
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// WriteCorpus writes a JSON corpus file into a temp dir and returns its path.
func WriteCorpus(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write corpus: %v", err)
	}
	return path
}

// FlagOptions configures NewTestFlags
type FlagOptions struct {
	Port         int      // Uses free port if 0
	Transport    string   // Defaults to "http"
	Host         string   // Defaults to "localhost"
	Corpus       []string // Required for a server that starts
	DocumentsDir string
	LLMProvider  string // Defaults to "echo"
	Engine       string
}

// NewTestFlags creates a configured pflag.FlagSet for testing
func NewTestFlags(t testing.TB, opts *FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterFlags(flags)

	o := FlagOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Port == 0 {
		o.Port = MustGetFreePort(t)
	}
	if o.Transport == "" {
		o.Transport = "http"
	}
	if o.Host == "" {
		o.Host = "localhost"
	}
	if o.LLMProvider == "" {
		o.LLMProvider = "echo"
	}

	_ = flags.Set("port", fmt.Sprintf("%d", o.Port))
	_ = flags.Set("transport", o.Transport)
	_ = flags.Set("host", o.Host)
	_ = flags.Set("llm-provider", o.LLMProvider)
	// An empty directory keeps summaries on corpus content by default.
	if o.DocumentsDir == "" {
		o.DocumentsDir = t.TempDir()
	}
	_ = flags.Set("documents-dir", o.DocumentsDir)
	for _, source := range o.Corpus {
		_ = flags.Set("corpus", source)
	}
	if o.Engine != "" {
		_ = flags.Set("engine", o.Engine)
	}

	return flags
}

// ServerService runs the full HTTP server in-process.
type ServerService struct {
	Flags   *pflag.FlagSet
	Timeout time.Duration // startup wait, defaults to 10s

	cancel context.CancelFunc
	done   chan error
}

// NewServerService creates a service for the given flags
func NewServerService(flags *pflag.FlagSet) *ServerService {
	return &ServerService{Flags: flags}
}

func (s *ServerService) GetName() string {
	return "lexsearch"
}

// Start launches the server and waits until /ready answers. It publishes
// "base_url" and "port".
func (s *ServerService) Start() (map[string]any, error) {
	host, _ := s.Flags.GetString("host")
	port, _ := s.Flags.GetInt("port")
	baseURL := fmt.Sprintf("http://%s:%d", host, port)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- app.RunWithDeps(ctx, app.DefaultRunParams(), s.Flags, "test")
	}()

	timeout := s.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case err := <-s.done:
			cancel()
			if err == nil {
				err = errors.New("server exited during startup")
			}
			return nil, err
		default:
		}

		resp, err := http.Get(baseURL + "/ready")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return map[string]any{"base_url": baseURL, "port": port}, nil
			}
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	return nil, fmt.Errorf("server not ready after %s", timeout)
}

// Stop cancels the server and waits for it to exit.
func (s *ServerService) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case err := <-s.done:
		return err
	case <-time.After(app.ShutdownTimeout + time.Second):
		return errors.New("server did not stop")
	}
}
