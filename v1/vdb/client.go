package vdb

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Aleph-Alpha/vdb-client/v1/observability"
	"github.com/Aleph-Alpha/vdb-client/v1/schema"
)

//
// ──────────────────────────────────────────────────────────────
//   VECTOR DATABASE CLIENT
// ──────────────────────────────────────────────────────────────
//
// This file defines a typed client over the server's gRPC service.
// Every public method issues exactly one request (DescribeCollections
// fans out several), checks the returned status and converts the reply
// into the types of the schema package.
//
// Responsibilities:
//   • Establish the gRPC connection with authentication and TLS.
//   • Apply per-call defaults (deadline, request id, database).
//   • Keep the per-collection state needed to marshal inserts and to
//     resolve session consistency.
//

const (
	defaultShardsNum      = 2
	maxConcurrentDescribe = 10
)

// Client is safe for concurrent use once constructed. WithLogger,
// WithObserver and WithTracer must be called before the client is shared.
type Client struct {
	conn     *grpc.ClientConn
	api      milvuspb.MilvusServiceClient
	cfg      *Config
	logger   Logger
	observer observability.Observer
	tracer   Tracer

	schemas *schemaCache
	session *sessionClock

	closeOnce sync.Once
	closed    atomic.Bool
}

// NewClient dials the server described by cfg. When cfg.CheckHealth is set
// it also verifies the server is reachable and healthy within
// cfg.ConnectTimeout.
//
// Example:
//
//	cfg, _ := vdb.ConfigFromEnv()
//	client, err := vdb.NewClient(cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, ErrMissingConfig
	}
	log.Printf("[VDB] Connecting to %s", cfg.target())

	c := &Client{
		cfg:     cfg,
		logger:  cfg.Logger,
		schemas: newSchemaCache(),
		session: newSessionClock(),
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}

	creds, err := transportCredentials(cfg.TLS)
	if err != nil {
		return nil, err
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithChainUnaryInterceptor(c.unaryInterceptor()),
	}
	if auth := cfg.auth(); auth != nil {
		opts = append(opts, grpc.WithPerRPCCredentials(auth))
	}
	opts = append(opts, cfg.DialOptions...)

	conn, err := grpc.NewClient(cfg.target(), opts...)
	if err != nil {
		return nil, fmt.Errorf("[VDB] failed to initialize client: %w", err)
	}
	c.conn = conn
	c.api = milvuspb.NewMilvusServiceClient(conn)

	if cfg.CheckHealth {
		if err := c.healthCheck(); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	log.Println("[VDB] Client connected successfully")
	return c, nil
}

func transportCredentials(cfg TLSConfig) (credentials.TransportCredentials, error) {
	if !cfg.Enabled {
		return insecure.NewCredentials(), nil
	}

	tlsCfg := &tls.Config{
		ServerName:         cfg.ServerName,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
	if cfg.CACertPath != "" {
		pem, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("[VDB] failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("[VDB] no certificates found in %s", cfg.CACertPath)
		}
		tlsCfg.RootCAs = pool
	}
	return credentials.NewTLS(tlsCfg), nil
}

// healthCheck asks the server for its health within ConnectTimeout.
func (c *Client) healthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	defer cancel()

	health, err := c.CheckHealth(ctx)
	if err != nil {
		return fmt.Errorf("[VDB] health check failed: %w", err)
	}
	if !health.IsHealthy {
		return fmt.Errorf("[VDB] server is unhealthy: %s", strings.Join(health.Reasons, "; "))
	}

	log.Printf("[VDB] Health check passed (target=%s)", c.cfg.target())
	return nil
}

// WithLogger replaces the logger used for per-call diagnostics.
func (c *Client) WithLogger(logger Logger) *Client {
	if logger == nil {
		logger = nopLogger{}
	}
	c.logger = logger
	return c
}

// WithObserver sets the observer notified after every operation.
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.observer = observer
	return c
}

// WithTracer enables one span per RPC.
func (c *Client) WithTracer(tracer Tracer) *Client {
	c.tracer = tracer
	return c
}

// Conn returns the underlying gRPC connection.
func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

// Config returns the configuration the client was built with.
func (c *Client) Config() *Config {
	return c.cfg
}

// Close releases the connection. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.conn != nil {
			err = c.conn.Close()
		}
		log.Println("[VDB] Client connection closed")
	})
	return err
}

// schemaCache remembers collection schemas for marshaling inserts.
type schemaCache struct {
	mu      sync.RWMutex
	schemas map[string]*schema.CollectionSchema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{schemas: make(map[string]*schema.CollectionSchema)}
}

func (s *schemaCache) get(name string) (*schema.CollectionSchema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schemas[name]
	return sc, ok
}

func (s *schemaCache) put(name string, sc *schema.CollectionSchema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[name] = sc
}

func (s *schemaCache) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.schemas, name)
}
