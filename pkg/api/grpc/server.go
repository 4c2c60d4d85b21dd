package grpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/guiding/pkg/asm"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/config"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/field"
	"github.com/therealutkarshpriyadarshi/guiding/pkg/observability"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// Server is the gRPC front end of the guiding service: it owns the
// spatial field of trained mixtures and exposes Fit/Update/Sample/PDF
// over the hand-rolled GuidingServer service description in service.go.
type Server struct {
	config     *config.Config
	grpcServer *grpclib.Server
	listener   net.Listener
	startTime  time.Time
	shutdownMu sync.Mutex
	isShutdown bool

	field   *field.Field
	regions map[string]*field.Region
	mu      sync.RWMutex

	asmConfig asm.Configuration
	logger    *observability.Logger
	metrics   *observability.Metrics
	tracer    observability.TracingSink
}

// NewServer creates a new gRPC server over an empty field.
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := observability.NewDefaultLogger()
	logger.SetLevel(observability.ParseLogLevel(cfg.Logging.Level))

	var tracer observability.TracingSink = observability.NoopSink{}
	if cfg.Logging.Tracing {
		tracer = observability.LoggingSink{Logger: logger}
	}

	s := &Server{
		config:    cfg,
		field:     field.New(),
		regions:   make(map[string]*field.Region),
		asmConfig: cfg.ASM.ToASMConfiguration(),
		logger:    logger,
		metrics:   observability.NewMetrics(),
		tracer:    tracer,
		startTime: time.Now(),
	}

	return s, nil
}

// getOrCreateRegion returns the region for regionID, anchoring a new one
// at anchor the first time it is seen.
func (s *Server) getOrCreateRegion(regionID string, anchor [3]float64) *field.Region {
	s.mu.RLock()
	r, ok := s.regions[regionID]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.regions[regionID]; ok {
		return r
	}
	r = s.field.AddRegion(anchor)
	s.regions[regionID] = r
	return r
}

func (s *Server) getRegion(regionID string) (*field.Region, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[regionID]
	return r, ok
}

// Start starts the gRPC server.
func (s *Server) Start() error {
	var opts []grpclib.ServerOption

	if s.config.Server.EnableTLS {
		cert, err := tls.LoadX509KeyPair(s.config.Server.CertFile, s.config.Server.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificates: %w", err)
		}
		tlsConfig := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		opts = append(opts, grpclib.Creds(credentials.NewTLS(tlsConfig)))
		s.logger.Info("TLS enabled")
	}

	kaParams := keepalive.ServerParameters{
		MaxConnectionIdle: 15 * time.Second,
		MaxConnectionAge:  30 * time.Second,
		Time:              5 * time.Second,
		Timeout:           1 * time.Second,
	}
	opts = append(opts, grpclib.KeepaliveParams(kaParams))
	opts = append(opts, grpclib.MaxConcurrentStreams(uint32(s.config.Server.MaxConnections)))

	s.grpcServer = grpclib.NewServer(opts...)
	RegisterGuidingServer(s.grpcServer, s)
	reflection.Register(s.grpcServer)

	addr := s.config.Server.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.logger.Info(fmt.Sprintf("guiding gRPC server listening on %s", addr))

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			s.logger.Error(fmt.Sprintf("gRPC server error: %v", err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()

	if s.isShutdown {
		return nil
	}

	s.logger.Info("shutting down gRPC server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info("gRPC server stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("shutdown timeout exceeded, forcing stop")
		s.grpcServer.Stop()
	}

	s.isShutdown = true
	return nil
}

// Wait blocks forever once Start has opened a listener and returns at
// once otherwise; it does not return when the listener is closed.
func (s *Server) Wait() {
	if s.listener != nil {
		<-make(chan struct{})
	}
}

// Uptime returns server uptime.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}
