// Package pinecone provides a vector index adapter backed by the official
// Pinecone Go SDK.
package pinecone

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/custodia-labs/policyrag/internal/core/domain"
	"github.com/custodia-labs/policyrag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// Default configuration values.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 10.0
	DefaultBurst             = 10

	// MaxUpsertBatch is the largest number of vectors sent per upsert request.
	MaxUpsertBatch = 100
)

// Config holds configuration for the Pinecone index.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// Host is the data-plane host. Resolved from IndexName when empty.
	Host string

	// IndexName is used to look up Host through the control plane.
	IndexName string

	// Namespace scopes every read and write (default: kb).
	Namespace string

	// ControlPlaneURL overrides the control-plane base URL.
	ControlPlaneURL string

	// Timeout bounds control-plane requests (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond and Burst configure client-side throttling.
	RequestsPerSecond float64
	Burst             int
}

// dataPlane is the part of *pinecone.IndexConnection used by the index.
type dataPlane interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	Close() error
}

// VectorIndex talks to one Pinecone index namespace.
type VectorIndex struct {
	limiter   *rate.Limiter
	indexName string
	namespace string

	describe func(ctx context.Context, name string) (string, error)
	connect  func(host, namespace string) (dataPlane, error)

	mu   sync.Mutex
	host string
	conn dataPlane
}

// NewVectorIndex creates a Pinecone index client. No request is made until
// the first Upsert or Query.
func NewVectorIndex(cfg Config) (*VectorIndex, error) {
	if cfg.APIKey == "" {
		return nil, &domain.MissingSettingError{Setting: "index.api_key", Env: "PINECONE_API_KEY"}
	}
	if cfg.Host == "" && cfg.IndexName == "" {
		return nil, &domain.MissingSettingError{Setting: "index.host", Env: "PINECONE_HOST"}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = domain.DefaultNamespace
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey:     cfg.APIKey,
		Host:       cfg.ControlPlaneURL,
		RestClient: &http.Client{Timeout: cfg.Timeout},
		SourceTag:  "policyrag",
	})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}

	return &VectorIndex{
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		indexName: cfg.IndexName,
		namespace: cfg.Namespace,
		host:      strings.TrimRight(strings.TrimSpace(cfg.Host), "/"),
		describe: func(ctx context.Context, name string) (string, error) {
			idx, err := client.DescribeIndex(ctx, name)
			if err != nil {
				return "", err
			}
			return idx.Host, nil
		},
		connect: func(host, namespace string) (dataPlane, error) {
			conn, err := client.Index(pinecone.NewIndexConnParams{Host: host, Namespace: namespace})
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
	}, nil
}

// Upsert writes entries in batches of MaxUpsertBatch.
func (v *VectorIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry without id", domain.ErrInvalidInput)
		}
	}

	conn, err := v.connection(ctx)
	if err != nil {
		return fmt.Errorf("pinecone upsert: %w", err)
	}

	for start := 0; start < len(entries); start += MaxUpsertBatch {
		end := min(start+MaxUpsertBatch, len(entries))
		vectors := make([]*pinecone.Vector, 0, end-start)
		for _, e := range entries[start:end] {
			vec, err := toVector(e)
			if err != nil {
				return fmt.Errorf("pinecone upsert: %w", err)
			}
			vectors = append(vectors, vec)
		}

		if err := v.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := conn.UpsertVectors(ctx, vectors); err != nil {
			return fmt.Errorf("pinecone upsert: %w", err)
		}
	}
	return nil
}

// Query returns up to topK matches, highest score first.
func (v *VectorIndex) Query(ctx context.Context, values []float32, topK int, includeMetadata bool) ([]domain.VectorMatch, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", domain.ErrInvalidInput)
	}

	conn, err := v.connection(ctx)
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          values,
		TopK:            uint32(topK),
		IncludeMetadata: includeMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	matches := make([]domain.VectorMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		match := domain.VectorMatch{ID: m.Vector.Id, Score: float64(m.Score)}
		if includeMetadata && m.Vector.Metadata != nil {
			match.Metadata = m.Vector.Metadata.AsMap()
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// Namespace returns the namespace this index is scoped to.
func (v *VectorIndex) Namespace() string {
	return v.namespace
}

// Close releases the data-plane connection.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conn == nil {
		return nil
	}
	err := v.conn.Close()
	v.conn = nil
	return err
}

// Host returns the data-plane host, resolving it when needed.
func (v *VectorIndex) Host(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resolveHost(ctx)
}

func (v *VectorIndex) resolveHost(ctx context.Context) (string, error) {
	if v.host != "" {
		return v.host, nil
	}

	if err := v.limiter.Wait(ctx); err != nil {
		return "", err
	}
	host, err := v.describe(ctx, v.indexName)
	if err != nil {
		return "", fmt.Errorf("describe index %s: %w", v.indexName, err)
	}
	if host == "" {
		return "", fmt.Errorf("describe index %s: no host returned", v.indexName)
	}
	v.host = host
	return v.host, nil
}

// connection opens the namespace-scoped index connection on first use.
func (v *VectorIndex) connection(ctx context.Context) (dataPlane, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conn != nil {
		return v.conn, nil
	}

	host, err := v.resolveHost(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := v.connect(host, v.namespace)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", host, err)
	}
	v.conn = conn
	return conn, nil
}

// toVector converts an index entry into the SDK representation.
func toVector(e domain.IndexEntry) (*pinecone.Vector, error) {
	values := e.Values
	vec := &pinecone.Vector{Id: e.ID, Values: &values}
	if len(e.Metadata) == 0 {
		return vec, nil
	}

	meta, err := structpb.NewStruct(e.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata of %s: %w", domain.ErrInvalidInput, e.ID, err)
	}
	vec.Metadata = meta
	return vec, nil
}
