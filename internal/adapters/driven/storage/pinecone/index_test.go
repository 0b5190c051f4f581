package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/custodia-labs/policyrag/internal/core/domain"
)

type fakeDataPlane struct {
	upserts [][]*pinecone.Vector
	query   *pinecone.QueryByVectorValuesRequest
	resp    *pinecone.QueryVectorsResponse
	err     error
	closed  bool
}

func (f *fakeDataPlane) UpsertVectors(_ context.Context, in []*pinecone.Vector) (uint32, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.upserts = append(f.upserts, in)
	return uint32(len(in)), nil
}

func (f *fakeDataPlane) QueryByVectorValues(_ context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	f.query = in
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &pinecone.QueryVectorsResponse{}, nil
	}
	return f.resp, nil
}

func (f *fakeDataPlane) Close() error {
	f.closed = true
	return nil
}

type connectCall struct {
	host      string
	namespace string
}

// withFakeDataPlane swaps the SDK connection for fake and records every connect.
func withFakeDataPlane(idx *VectorIndex, fake *fakeDataPlane) *[]connectCall {
	var calls []connectCall
	idx.connect = func(host, namespace string) (dataPlane, error) {
		calls = append(calls, connectCall{host: host, namespace: namespace})
		return fake, nil
	}
	return &calls
}

func TestNewVectorIndex_Validation(t *testing.T) {
	_, err := NewVectorIndex(Config{Host: "h"})
	assert.ErrorIs(t, err, domain.ErrMissingSetting)

	_, err = NewVectorIndex(Config{APIKey: "k"})
	assert.ErrorIs(t, err, domain.ErrMissingSetting)

	idx, err := NewVectorIndex(Config{APIKey: "k", Host: " kb-123.svc.pinecone.io/ "})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultNamespace, idx.Namespace())

	host, err := idx.Host(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kb-123.svc.pinecone.io", host)
}

func TestVectorIndex_Upsert_Batches(t *testing.T) {
	idx, err := NewVectorIndex(Config{APIKey: "secret", Host: "kb.svc.pinecone.io", Namespace: "policies", RequestsPerSecond: 1000})
	require.NoError(t, err)
	fake := &fakeDataPlane{}
	calls := withFakeDataPlane(idx, fake)

	entries := make([]domain.IndexEntry, MaxUpsertBatch+5)
	for i := range entries {
		entries[i] = domain.IndexEntry{
			ID:       fmt.Sprintf("id-%d", i),
			Values:   []float32{1, 0},
			Metadata: domain.Chunk{Text: "Storm cover", Source: "home.pdf", Ordinal: i}.Metadata(),
		}
	}

	require.NoError(t, idx.Upsert(context.Background(), entries))

	require.Len(t, fake.upserts, 2)
	assert.Len(t, fake.upserts[0], MaxUpsertBatch)
	assert.Len(t, fake.upserts[1], 5)
	require.Equal(t, []connectCall{{host: "kb.svc.pinecone.io", namespace: "policies"}}, *calls)

	last := fake.upserts[1][4]
	assert.Equal(t, "id-104", last.Id)
	require.NotNil(t, last.Values)
	assert.Equal(t, []float32{1, 0}, *last.Values)
	meta := last.Metadata.AsMap()
	assert.Equal(t, "Storm cover", meta[domain.MetaText])
	assert.Equal(t, float64(104), meta[domain.MetaOrdinal])
}

func TestVectorIndex_Upsert_RejectsEmptyID(t *testing.T) {
	idx, err := NewVectorIndex(Config{APIKey: "k", Host: "kb.svc.pinecone.io"})
	require.NoError(t, err)
	calls := withFakeDataPlane(idx, &fakeDataPlane{})

	err = idx.Upsert(context.Background(), []domain.IndexEntry{{Values: []float32{1}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, *calls)
}

func TestVectorIndex_Upsert_RejectsUnsupportedMetadata(t *testing.T) {
	idx, err := NewVectorIndex(Config{APIKey: "k", Host: "kb.svc.pinecone.io"})
	require.NoError(t, err)
	withFakeDataPlane(idx, &fakeDataPlane{})

	err = idx.Upsert(context.Background(), []domain.IndexEntry{
		{ID: "a", Values: []float32{1}, Metadata: map[string]any{"bad": struct{}{}}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorIndex_Upsert_Error(t *testing.T) {
	idx, err := NewVectorIndex(Config{APIKey: "k", Host: "kb.svc.pinecone.io"})
	require.NoError(t, err)
	withFakeDataPlane(idx, &fakeDataPlane{err: errors.New("unavailable")})

	err = idx.Upsert(context.Background(), []domain.IndexEntry{{ID: "a", Values: []float32{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestVectorIndex_Query(t *testing.T) {
	meta, err := structpb.NewStruct(map[string]any{"text": "Flood excluded", "source": "home.pdf", "ordinal": 2})
	require.NoError(t, err)
	fake := &fakeDataPlane{resp: &pinecone.QueryVectorsResponse{Matches: []*pinecone.ScoredVector{
		{Vector: &pinecone.Vector{Id: "a", Metadata: meta}, Score: 0.91},
		{Vector: &pinecone.Vector{Id: "b"}, Score: 0.40},
		nil,
	}}}

	idx, err := NewVectorIndex(Config{APIKey: "k", Host: "kb.svc.pinecone.io"})
	require.NoError(t, err)
	withFakeDataPlane(idx, fake)

	matches, err := idx.Query(context.Background(), []float32{1, 0}, 3, true)

	require.NoError(t, err)
	require.NotNil(t, fake.query)
	assert.Equal(t, uint32(3), fake.query.TopK)
	assert.True(t, fake.query.IncludeMetadata)
	assert.Equal(t, []float32{1, 0}, fake.query.Vector)

	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.InDelta(t, 0.91, matches[0].Score, 1e-6)
	assert.Nil(t, matches[1].Metadata)

	rc := domain.RetrievedChunkFromMatch(matches[0])
	assert.Equal(t, "Flood excluded", rc.Text)
	assert.Equal(t, 2, rc.Ordinal())
}

func TestVectorIndex_Query_WithoutMetadata(t *testing.T) {
	meta, err := structpb.NewStruct(map[string]any{"text": "ignored"})
	require.NoError(t, err)
	fake := &fakeDataPlane{resp: &pinecone.QueryVectorsResponse{Matches: []*pinecone.ScoredVector{
		{Vector: &pinecone.Vector{Id: "a", Metadata: meta}, Score: 0.5},
	}}}

	idx, err := NewVectorIndex(Config{APIKey: "k", Host: "kb.svc.pinecone.io"})
	require.NoError(t, err)
	withFakeDataPlane(idx, fake)

	matches, err := idx.Query(context.Background(), []float32{1}, 1, false)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Nil(t, matches[0].Metadata)
	assert.False(t, fake.query.IncludeMetadata)
}

func TestVectorIndex_Query_Errors(t *testing.T) {
	idx, err := NewVectorIndex(Config{APIKey: "k", Host: "kb.svc.pinecone.io"})
	require.NoError(t, err)
	withFakeDataPlane(idx, &fakeDataPlane{err: errors.New("rpc error: code = Unauthenticated")})

	_, err = idx.Query(context.Background(), []float32{1}, 1, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthenticated")

	_, err = idx.Query(context.Background(), []float32{1}, 0, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorIndex_ResolvesHostFromIndexName(t *testing.T) {
	var describes atomic.Int32
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/policy-kb", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("Api-Key"))
		describes.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"policy-kb","host":"policy-kb-abc.svc.pinecone.io","metric":"cosine","dimension":2}`))
	}))
	defer control.Close()

	idx, err := NewVectorIndex(Config{APIKey: "k", IndexName: "policy-kb", ControlPlaneURL: control.URL})
	require.NoError(t, err)
	calls := withFakeDataPlane(idx, &fakeDataPlane{})

	_, err = idx.Query(context.Background(), []float32{1}, 1, false)
	require.NoError(t, err)
	_, err = idx.Query(context.Background(), []float32{1}, 1, false)
	require.NoError(t, err)

	assert.Equal(t, int32(1), describes.Load())
	assert.Equal(t, []connectCall{{host: "policy-kb-abc.svc.pinecone.io", namespace: domain.DefaultNamespace}}, *calls)
}

func TestVectorIndex_DescribeFailure(t *testing.T) {
	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":"NOT_FOUND","message":"index not found"}}`, http.StatusNotFound)
	}))
	defer control.Close()

	idx, err := NewVectorIndex(Config{APIKey: "k", IndexName: "missing", ControlPlaneURL: control.URL})
	require.NoError(t, err)
	calls := withFakeDataPlane(idx, &fakeDataPlane{})

	_, err = idx.Query(context.Background(), []float32{1}, 1, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "describe index missing")
	assert.Empty(t, *calls)
}

func TestVectorIndex_Close(t *testing.T) {
	idx, err := NewVectorIndex(Config{APIKey: "k", Host: "kb.svc.pinecone.io"})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	fake := &fakeDataPlane{}
	withFakeDataPlane(idx, fake)
	_, err = idx.Query(context.Background(), []float32{1}, 1, false)
	require.NoError(t, err)

	require.NoError(t, idx.Close())
	assert.True(t, fake.closed)
}
