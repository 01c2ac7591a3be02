package qdrant

import (
	"context"
	"errors"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

// Storage mirrors chunk vectors into a Qdrant collection over gRPC.
// Point ids are chunk positions; cosine distance is assumed.
type Storage struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
	dimension   int
}

// pointsAPI is the subset of pb.PointsClient used by Storage.
type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
	Count(ctx context.Context, in *pb.CountPoints, opts ...grpc.CallOption) (*pb.CountResponse, error)
}

// collectionsAPI is the subset of pb.CollectionsClient used by Storage.
type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

type Config struct {
	Addr       string
	Collection string
}

// NewStorage connects to Qdrant's gRPC port (6334 by default).
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6334"
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant: collection name is required")
	}
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: dial %s: %w", cfg.Addr, err)
	}
	return newStorage(conn, pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), cfg.Collection), nil
}

func newStorage(conn *grpc.ClientConn, points pointsAPI, collections collectionsAPI, collection string) *Storage {
	return &Storage{conn: conn, points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection.
func (s *Storage) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Init creates the collection if it does not exist yet.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("qdrant: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}
	points := make([]*pb.PointStruct, len(chunks))
	for i, ch := range chunks {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Num{Num: uint64(ch.Position)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vectors[i]},
				},
			},
			Payload: map[string]*pb.Value{
				"id":     {Kind: &pb.Value_StringValue{StringValue: ch.ID}},
				"page":   {Kind: &pb.Value_IntegerValue{IntegerValue: int64(ch.Page)}},
				"source": {Kind: &pb.Value_StringValue{StringValue: ch.Source}},
				"text":   {Kind: &pb.Value_StringValue{StringValue: ch.Text}},
			},
		}
	}
	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert %d points: %w", len(points), err)
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 2
	}
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		payload := r.GetPayload()
		results = append(results, domain.SearchResult{
			Chunk: domain.Chunk{
				ID:       payload["id"].GetStringValue(),
				Position: int(r.GetId().GetNum()),
				Page:     int(payload["page"].GetIntegerValue()),
				Source:   payload["source"].GetStringValue(),
				Text:     payload["text"].GetStringValue(),
			},
			Score: float64(r.GetScore()),
		})
	}
	return results, nil
}

// Count returns the exact number of points in the collection.
func (s *Storage) Count(ctx context.Context) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Clear drops the collection and recreates it empty.
func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collection})
	if err != nil {
		return fmt.Errorf("qdrant: delete collection %s: %w", s.collection, err)
	}
	if s.dimension > 0 {
		return s.Init(ctx, s.dimension)
	}
	return nil
}
