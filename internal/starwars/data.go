package starwars

import (
	"context"
	"slices"
	"strings"
	"sync"
)

type Episode int

const (
	NewHope Episode = 4
	Empire  Episode = 5
	Jedi    Episode = 6
)

type Human struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Friends    []string  `json:"-"`
	AppearsIn  []Episode `json:"appearsIn"`
	HomePlanet string    `json:"homePlanet,omitempty"`
	Height     float64   `json:"-"`
}

func (*Human) GraphQLType() string { return "Human" }

type Droid struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Friends         []string  `json:"-"`
	AppearsIn       []Episode `json:"appearsIn"`
	PrimaryFunction string    `json:"primaryFunction"`
}

func (*Droid) GraphQLType() string { return "Droid" }

type Review struct {
	Episode    Episode `json:"episode"`
	Stars      int     `json:"stars"`
	Commentary string  `json:"commentary"`
}

// Store is an in-memory character database with a review log that can be
// watched.
type Store struct {
	humans map[string]*Human
	droids map[string]*Droid

	mu       sync.Mutex
	reviews  []*Review
	watchers map[chan any]struct{}
}

// NewStore returns a store seeded with the original trilogy characters.
func NewStore() *Store {
	s := &Store{
		humans:   map[string]*Human{},
		droids:   map[string]*Droid{},
		watchers: map[chan any]struct{}{},
	}
	all := []Episode{NewHope, Empire, Jedi}
	for _, h := range []*Human{
		{ID: "1000", Name: "Luke Skywalker", Friends: []string{"1002", "1003", "2000", "2001"}, AppearsIn: all, HomePlanet: "Tatooine", Height: 1.72},
		{ID: "1001", Name: "Darth Vader", Friends: []string{"1004"}, AppearsIn: all, HomePlanet: "Tatooine", Height: 2.02},
		{ID: "1002", Name: "Han Solo", Friends: []string{"1000", "1003", "2001"}, AppearsIn: all, Height: 1.8},
		{ID: "1003", Name: "Leia Organa", Friends: []string{"1000", "1002", "2000", "2001"}, AppearsIn: all, HomePlanet: "Alderaan", Height: 1.5},
		{ID: "1004", Name: "Wilhuff Tarkin", Friends: []string{"1001"}, AppearsIn: []Episode{NewHope}, Height: 1.8},
	} {
		s.humans[h.ID] = h
	}
	for _, d := range []*Droid{
		{ID: "2000", Name: "C-3PO", Friends: []string{"1000", "1002", "1003", "2001"}, AppearsIn: all, PrimaryFunction: "Protocol"},
		{ID: "2001", Name: "R2-D2", Friends: []string{"1000", "1002", "1003"}, AppearsIn: all, PrimaryFunction: "Astromech"},
	} {
		s.droids[d.ID] = d
	}
	return s
}

// Character returns the human or droid with id, or nil.
func (s *Store) Character(id string) any {
	if h, ok := s.humans[id]; ok {
		return h
	}
	if d, ok := s.droids[id]; ok {
		return d
	}
	return nil
}

func (s *Store) Human(id string) *Human {
	if h, ok := s.humans[id]; ok {
		return h
	}
	return nil
}

func (s *Store) Droid(id string) *Droid {
	if d, ok := s.droids[id]; ok {
		return d
	}
	return nil
}

// Hero returns Luke for The Empire Strikes Back and R2-D2 otherwise.
func (s *Store) Hero(episode Episode) any {
	if episode == Empire {
		return s.humans["1000"]
	}
	return s.droids["2001"]
}

// Friends resolves ids to characters, skipping unknown ones.
func (s *Store) Friends(ids []string) []any {
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if c := s.Character(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Search returns the characters whose name contains text, case-insensitively,
// humans first and each group ordered by id.
func (s *Store) Search(text string) []any {
	text = strings.ToLower(text)
	var out []any
	for _, id := range sortedKeys(s.humans) {
		if strings.Contains(strings.ToLower(s.humans[id].Name), text) {
			out = append(out, s.humans[id])
		}
	}
	for _, id := range sortedKeys(s.droids) {
		if strings.Contains(strings.ToLower(s.droids[id].Name), text) {
			out = append(out, s.droids[id])
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AddReview records r and delivers it to every watcher.
func (s *Store) AddReview(r *Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, r)
	for ch := range s.watchers {
		select {
		case ch <- r:
		default:
		}
	}
}

func (s *Store) Reviews(episode Episode) []*Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Review
	for _, r := range s.reviews {
		if r.Episode == episode {
			out = append(out, r)
		}
	}
	return out
}

// WatchReviews returns a channel receiving reviews added after the call. It
// is closed once ctx is done. Slow readers miss reviews.
func (s *Store) WatchReviews(ctx context.Context) <-chan any {
	ch := make(chan any, 16)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}
