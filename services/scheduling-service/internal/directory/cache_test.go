package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

var errMissing = errors.New("missing")

type countingSource struct {
	members map[string]model.TeamMember
	gets    int
}

func (s *countingSource) GetByID(_ context.Context, id string) (model.TeamMember, error) {
	s.gets++
	m, ok := s.members[id]
	if !ok {
		return model.TeamMember{}, errMissing
	}
	return m, nil
}

func (s *countingSource) Search(_ context.Context, q string, limit int) ([]model.TeamMember, error) {
	var out []model.TeamMember
	for _, m := range s.members {
		out = append(out, m)
	}
	return out, nil
}

func TestCacheServesRepeatLookups(t *testing.T) {
	src := &countingSource{members: map[string]model.TeamMember{"1": {ID: "1", Name: "Linh"}}}
	c := NewCache(src, 8, time.Minute)

	for i := 0; i < 3; i++ {
		m, err := c.GetByID(context.Background(), "1")
		if err != nil || m.Name != "Linh" {
			t.Fatalf("lookup %d: %+v %v", i, m, err)
		}
	}
	if src.gets != 1 {
		t.Fatalf("expected 1 source lookup, got %d", src.gets)
	}
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	src := &countingSource{members: map[string]model.TeamMember{}}
	c := NewCache(src, 8, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := c.GetByID(context.Background(), "nope"); !errors.Is(err, errMissing) {
			t.Fatalf("expected source error, got %v", err)
		}
	}
	if src.gets != 2 {
		t.Fatalf("errors must not be cached, got %d lookups", src.gets)
	}
}

func TestSearchWarmsCache(t *testing.T) {
	src := &countingSource{members: map[string]model.TeamMember{"1": {ID: "1"}, "2": {ID: "2"}}}
	c := NewCache(src, 8, time.Minute)

	if _, err := c.Search(context.Background(), "", 10); err != nil {
		t.Fatalf("search: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 cached members, got %d", c.Len())
	}
	if _, err := c.GetByID(context.Background(), "2"); err != nil || src.gets != 0 {
		t.Fatalf("expected cache hit, gets=%d err=%v", src.gets, err)
	}
}
