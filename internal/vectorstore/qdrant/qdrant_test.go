package qdrant

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

type fakePoints struct {
	lastUpsert *pb.UpsertPoints
	lastSearch *pb.SearchPoints
	searchResp *pb.SearchResponse
	count      uint64
	err        error
}

func (f *fakePoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	f.lastUpsert = in
	return &pb.PointsOperationResponse{}, f.err
}

func (f *fakePoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	f.lastSearch = in
	return f.searchResp, f.err
}

func (f *fakePoints) Count(_ context.Context, _ *pb.CountPoints, _ ...grpc.CallOption) (*pb.CountResponse, error) {
	return &pb.CountResponse{Result: &pb.CountResult{Count: f.count}}, f.err
}

type fakeCollections struct {
	existing []string
	created  *pb.CreateCollection
	deleted  bool
}

func (f *fakeCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	resp := &pb.ListCollectionsResponse{}
	for _, name := range f.existing {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: name})
	}
	return resp, nil
}

func (f *fakeCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.created = in
	f.existing = append(f.existing, in.GetCollectionName())
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func (f *fakeCollections) Delete(_ context.Context, _ *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	f.deleted = true
	f.existing = nil
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func TestInitCreatesCollection(t *testing.T) {
	cols := &fakeCollections{}
	s := newStorage(nil, &fakePoints{}, cols, "medical_book")
	if err := s.Init(context.Background(), 384); err != nil {
		t.Fatal(err)
	}
	if cols.created == nil {
		t.Fatal("collection not created")
	}
	params := cols.created.GetVectorsConfig().GetParams()
	if params.GetSize() != 384 || params.GetDistance() != pb.Distance_Cosine {
		t.Errorf("params = %+v", params)
	}
}

func TestInitExistingCollection(t *testing.T) {
	cols := &fakeCollections{existing: []string{"medical_book"}}
	s := newStorage(nil, &fakePoints{}, cols, "medical_book")
	if err := s.Init(context.Background(), 384); err != nil {
		t.Fatal(err)
	}
	if cols.created != nil {
		t.Fatal("existing collection recreated")
	}
}

func TestUpsertUsesPositionIDs(t *testing.T) {
	pts := &fakePoints{}
	s := newStorage(nil, pts, &fakeCollections{}, "c")
	chunks := []domain.Chunk{{ID: "d:7", Position: 7, Page: 3, Text: "aspirin"}}
	if err := s.Upsert(context.Background(), chunks, [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	p := pts.lastUpsert.GetPoints()[0]
	if p.GetId().GetNum() != 7 {
		t.Errorf("id = %v", p.GetId())
	}
	if p.GetPayload()["text"].GetStringValue() != "aspirin" {
		t.Errorf("payload = %v", p.GetPayload())
	}
	if !pts.lastUpsert.GetWait() {
		t.Error("upsert should wait")
	}
}

func TestSearchDecodesPayload(t *testing.T) {
	pts := &fakePoints{searchResp: &pb.SearchResponse{Result: []*pb.ScoredPoint{{
		Id:    &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: 4}},
		Score: 0.9,
		Payload: map[string]*pb.Value{
			"id":   {Kind: &pb.Value_StringValue{StringValue: "d:4"}},
			"page": {Kind: &pb.Value_IntegerValue{IntegerValue: 12}},
			"text": {Kind: &pb.Value_StringValue{StringValue: "insulin"}},
		},
	}}}}
	s := newStorage(nil, pts, &fakeCollections{}, "c")
	got, err := s.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if pts.lastSearch.GetLimit() != 2 {
		t.Errorf("limit = %d", pts.lastSearch.GetLimit())
	}
	if len(got) != 1 || got[0].Chunk.Position != 4 || got[0].Chunk.Page != 12 || got[0].Chunk.Text != "insulin" {
		t.Fatalf("results = %+v", got)
	}
}

func TestCountAndErrors(t *testing.T) {
	pts := &fakePoints{count: 42}
	s := newStorage(nil, pts, &fakeCollections{}, "c")
	n, err := s.Count(context.Background())
	if err != nil || n != 42 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
	pts.err = errors.New("unavailable")
	if _, err := s.Search(context.Background(), []float32{1}, 1); err == nil {
		t.Fatal("expected search error")
	}
}

func TestClearRecreates(t *testing.T) {
	cols := &fakeCollections{}
	s := newStorage(nil, &fakePoints{}, cols, "c")
	_ = s.Init(context.Background(), 8)
	cols.created = nil
	if err := s.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !cols.deleted || cols.created == nil {
		t.Fatalf("deleted = %v, recreated = %v", cols.deleted, cols.created != nil)
	}
}
