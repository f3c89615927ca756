// Package starwars is a demonstration schema over an in-memory Star Wars
// character database. It is served by the gqlengine command and used as a
// fixture by tests.
package starwars

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/gqlengine/internal/introspection"
	"github.com/hanpama/gqlengine/internal/schema"
)

var (
	id         = schema.NamedType("ID")
	str        = schema.NamedType("String")
	nonNullID  = schema.NonNullType(id)
	nonNullStr = schema.NonNullType(str)
	episode    = schema.NamedType("Episode")
	character  = schema.NamedType("Character")
)

// ErrInvalidStars is returned by createReview for ratings outside 0..5.
var ErrInvalidStars = errors.New("stars must be between 0 and 5")

// New builds the schema over store, introspection included.
func New(store *Store) (*schema.Schema, error) {
	b := schema.NewBuilder().
		SetDescription("The Star Wars trilogy.").
		SetMutationType("Mutation").
		SetSubscriptionType("Subscription")
	for _, t := range []*schema.Type{
		episodeEnum(), lengthUnitEnum(),
		characterInterface(),
		humanType(store), droidType(store),
		schema.NewType("SearchResult", schema.TypeKindUnion, "").
			AddPossibleType("Human").
			AddPossibleType("Droid"),
		reviewType(), reviewInput(),
		queryType(store), mutationType(store), subscriptionType(store),
	} {
		if err := b.AddDefinition(t); err != nil {
			return nil, fmt.Errorf("starwars: %w", err)
		}
	}
	b.Use(introspection.Use)
	s, err := b.Bake()
	if err != nil {
		return nil, fmt.Errorf("starwars: %w", err)
	}
	return s, nil
}

func episodeEnum() *schema.Type {
	return schema.NewType("Episode", schema.TypeKindEnum, "One of the films in the Star Wars Trilogy.").
		AddEnumValue(schema.NewEnumValue("NEWHOPE", NewHope).SetDescription("Released in 1977.")).
		AddEnumValue(schema.NewEnumValue("EMPIRE", Empire).SetDescription("Released in 1980.")).
		AddEnumValue(schema.NewEnumValue("JEDI", Jedi).SetDescription("Released in 1983."))
}

func lengthUnitEnum() *schema.Type {
	return schema.NewType("LengthUnit", schema.TypeKindEnum, "").
		AddEnumValue(schema.NewEnumValue("METER", "METER")).
		AddEnumValue(schema.NewEnumValue("FOOT", "FOOT"))
}

// characterFields are shared by the Character interface and its
// implementations.
func characterFields(t *schema.Type, store *Store) *schema.Type {
	t.AddField(schema.NewField("id", nonNullID)).
		AddField(schema.NewField("name", nonNullStr)).
		AddField(schema.NewField("friends", schema.ListType(character)).SetResolver(friends(store))).
		AddField(schema.NewField("appearsIn", schema.NonNullType(schema.ListType(schema.NonNullType(episode)))))
	return t
}

func characterInterface() *schema.Type {
	return characterFields(schema.NewType("Character", schema.TypeKindInterface, "A character in the Star Wars Trilogy."), nil)
}

func humanType(store *Store) *schema.Type {
	return characterFields(schema.NewType("Human", schema.TypeKindObject, "A humanoid creature in the Star Wars universe."), store).
		AddInterface("Character").
		AddField(schema.NewField("homePlanet", str).SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
			if h := p.Source.(*Human); h.HomePlanet != "" {
				return h.HomePlanet, nil
			}
			return nil, nil
		})).
		AddField(schema.NewField("height", schema.NamedType("Float")).
			AddArgument(schema.NewInputValue("unit", schema.NamedType("LengthUnit")).SetDefault("METER")).
			SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
				h := p.Source.(*Human).Height
				if p.Args["unit"] == "FOOT" {
					return h * 3.28084, nil
				}
				return h, nil
			}))
}

func droidType(store *Store) *schema.Type {
	return characterFields(schema.NewType("Droid", schema.TypeKindObject, "A mechanical creature in the Star Wars universe."), store).
		AddInterface("Character").
		AddField(schema.NewField("primaryFunction", str))
}

func friends(store *Store) schema.ResolveFunc {
	if store == nil {
		return nil
	}
	return func(_ context.Context, p schema.ResolveParams) (any, error) {
		switch c := p.Source.(type) {
		case *Human:
			return store.Friends(c.Friends), nil
		case *Droid:
			return store.Friends(c.Friends), nil
		}
		return nil, fmt.Errorf("unexpected character %T", p.Source)
	}
}

func reviewType() *schema.Type {
	return schema.NewType("Review", schema.TypeKindObject, "Represents a review for a movie.").
		AddField(schema.NewField("episode", episode)).
		AddField(schema.NewField("stars", schema.NonNullType(schema.NamedType("Int")))).
		AddField(schema.NewField("commentary", str).SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
			if r := p.Source.(*Review); r.Commentary != "" {
				return r.Commentary, nil
			}
			return nil, nil
		}))
}

func reviewInput() *schema.Type {
	return schema.NewType("ReviewInput", schema.TypeKindInputObject, "The input object sent when someone is creating a new review.").
		AddInputField(schema.NewInputValue("stars", schema.NonNullType(schema.NamedType("Int")))).
		AddInputField(schema.NewInputValue("commentary", str))
}

func queryType(store *Store) *schema.Type {
	return schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("hero", character).
			AddArgument(schema.NewInputValue("episode", episode).
				SetDescription("If omitted, returns the hero of the whole saga.")).
			SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
				e, _ := p.Args["episode"].(Episode)
				return store.Hero(e), nil
			})).
		AddField(schema.NewField("character", character).
			AddArgument(schema.NewInputValue("id", nonNullID)).
			SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
				return store.Character(p.Args["id"].(string)), nil
			})).
		AddField(schema.NewField("human", schema.NamedType("Human")).
			AddArgument(schema.NewInputValue("id", nonNullID)).
			SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
				if h := store.Human(p.Args["id"].(string)); h != nil {
					return h, nil
				}
				return nil, nil
			})).
		AddField(schema.NewField("droid", schema.NamedType("Droid")).
			AddArgument(schema.NewInputValue("id", nonNullID)).
			SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
				if d := store.Droid(p.Args["id"].(string)); d != nil {
					return d, nil
				}
				return nil, nil
			})).
		AddField(schema.NewField("search", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("SearchResult"))))).
			AddArgument(schema.NewInputValue("text", nonNullStr)).
			SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
				return store.Search(p.Args["text"].(string)), nil
			})).
		AddField(schema.NewField("reviews", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("Review"))))).
			AddArgument(schema.NewInputValue("episode", schema.NonNullType(episode))).
			SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
				return store.Reviews(p.Args["episode"].(Episode)), nil
			}))
}

func mutationType(store *Store) *schema.Type {
	return schema.NewType("Mutation", schema.TypeKindObject, "").
		AddField(schema.NewField("createReview", schema.NamedType("Review")).
			AddArgument(schema.NewInputValue("episode", schema.NonNullType(episode))).
			AddArgument(schema.NewInputValue("review", schema.NonNullType(schema.NamedType("ReviewInput")))).
			SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
				input := p.Args["review"].(map[string]any)
				r := &Review{Episode: p.Args["episode"].(Episode), Stars: toInt(input["stars"])}
				if r.Stars < 0 || r.Stars > 5 {
					return nil, ErrInvalidStars
				}
				if c, ok := input["commentary"].(string); ok {
					r.Commentary = c
				}
				store.AddReview(r)
				return r, nil
			}))
}

func subscriptionType(store *Store) *schema.Type {
	return schema.NewType("Subscription", schema.TypeKindObject, "").
		AddField(schema.NewField("reviewAdded", schema.NamedType("Review")).
			AddArgument(schema.NewInputValue("episode", episode)).
			SetSubscriber(func(ctx context.Context, p schema.ResolveParams) (<-chan any, error) {
				e, filtered := p.Args["episode"].(Episode)
				src := store.WatchReviews(ctx)
				if !filtered {
					return src, nil
				}
				out := make(chan any)
				go func() {
					defer close(out)
					for v := range src {
						if v.(*Review).Episode != e {
							continue
						}
						select {
						case out <- v:
						case <-ctx.Done():
							return
						}
					}
				}()
				return out, nil
			}).
			SetResolver(func(_ context.Context, p schema.ResolveParams) (any, error) {
				return p.Source, nil
			}))
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	}
	return 0
}
