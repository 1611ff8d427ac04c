package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pokecopilot/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionPokemon   = "pokemon"
	collectionMoves     = "moves"
	collectionAbilities = "abilities"

	vectorField = "contentVector"
)

// Firestore implements Repository using Cloud Firestore. The vector search
// requires a vector index on the contentVector field of the pokemon
// collection.
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &Firestore{client: client}, nil
}

func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) GetPokemon(ctx context.Context, id model.PokedexID) (*model.Pokemon, error) {
	snap, err := r.client.Collection(collectionPokemon).Doc(id.DocID()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrRecordNotFound, "pokemon not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to get pokemon", goerr.V("id", id))
	}

	var p model.Pokemon
	if err := snap.DataTo(&p); err != nil {
		return nil, goerr.Wrap(err, "failed to decode pokemon", goerr.V("id", id))
	}
	return &p, nil
}

func (r *Firestore) ListPokemon(ctx context.Context) ([]*model.Pokemon, error) {
	query := r.client.Collection(collectionPokemon).OrderBy("id", firestore.Asc)
	return decodePokemonDocs(query.Documents(ctx))
}

func (r *Firestore) FindPokemonByMove(ctx context.Context, move string) ([]*model.Pokemon, error) {
	query := r.client.Collection(collectionPokemon).Where("moves", "array-contains", move)
	return decodePokemonDocs(query.Documents(ctx))
}

func (r *Firestore) SearchSimilarPokemon(ctx context.Context, embedding []float32, limit int) ([]*model.Pokemon, error) {
	query := r.client.Collection(collectionPokemon).FindNearest(
		vectorField,
		firestore.Vector32(embedding),
		limit,
		firestore.DistanceMeasureCosine,
		nil,
	)
	return decodePokemonDocs(query.Documents(ctx))
}

func decodePokemonDocs(iter *firestore.DocumentIterator) ([]*model.Pokemon, error) {
	defer iter.Stop()

	var results []*model.Pokemon
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to iterate pokemon")
		}

		var p model.Pokemon
		if err := snap.DataTo(&p); err != nil {
			return nil, goerr.Wrap(err, "failed to decode pokemon", goerr.V("doc", snap.Ref.ID))
		}
		results = append(results, &p)
	}

	return results, nil
}

func (r *Firestore) GetMove(ctx context.Context, name string) (*model.Move, error) {
	snap, err := r.client.Collection(collectionMoves).Doc(name).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrRecordNotFound, "move not found", goerr.V("name", name))
		}
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to get move", goerr.V("name", name))
	}

	var m model.Move
	if err := snap.DataTo(&m); err != nil {
		return nil, goerr.Wrap(err, "failed to decode move", goerr.V("name", name))
	}
	return &m, nil
}

func (r *Firestore) ListMoves(ctx context.Context) ([]*model.Move, error) {
	iter := r.client.Collection(collectionMoves).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var results []*model.Move
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to iterate moves")
		}

		var m model.Move
		if err := snap.DataTo(&m); err != nil {
			return nil, goerr.Wrap(err, "failed to decode move", goerr.V("doc", snap.Ref.ID))
		}
		results = append(results, &m)
	}

	return results, nil
}

func (r *Firestore) GetAbility(ctx context.Context, name string) (*model.Ability, error) {
	snap, err := r.client.Collection(collectionAbilities).Doc(name).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrRecordNotFound, "ability not found", goerr.V("name", name))
		}
		return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to get ability", goerr.V("name", name))
	}

	var a model.Ability
	if err := snap.DataTo(&a); err != nil {
		return nil, goerr.Wrap(err, "failed to decode ability", goerr.V("name", name))
	}
	return &a, nil
}

func (r *Firestore) ListAbilities(ctx context.Context) ([]*model.Ability, error) {
	iter := r.client.Collection(collectionAbilities).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var results []*model.Ability
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(model.ErrStoreUnavailable, "failed to iterate abilities")
		}

		var a model.Ability
		if err := snap.DataTo(&a); err != nil {
			return nil, goerr.Wrap(err, "failed to decode ability", goerr.V("doc", snap.Ref.ID))
		}
		results = append(results, &a)
	}

	return results, nil
}

func (r *Firestore) ReplacePokemon(ctx context.Context, pokemon []*model.Pokemon) error {
	if err := r.wipeCollection(ctx, collectionPokemon); err != nil {
		return err
	}

	bw := r.client.BulkWriter(ctx)
	col := r.client.Collection(collectionPokemon)
	for _, p := range pokemon {
		if _, err := bw.Set(col.Doc(p.ID.DocID()), p); err != nil {
			return goerr.Wrap(err, "failed to enqueue pokemon", goerr.V("id", p.ID))
		}
	}
	bw.End()
	return nil
}

func (r *Firestore) ReplaceMoves(ctx context.Context, moves []*model.Move) error {
	if err := r.wipeCollection(ctx, collectionMoves); err != nil {
		return err
	}

	bw := r.client.BulkWriter(ctx)
	col := r.client.Collection(collectionMoves)
	for _, m := range moves {
		if _, err := bw.Set(col.Doc(m.Name), m); err != nil {
			return goerr.Wrap(err, "failed to enqueue move", goerr.V("name", m.Name))
		}
	}
	bw.End()
	return nil
}

func (r *Firestore) ReplaceAbilities(ctx context.Context, abilities []*model.Ability) error {
	if err := r.wipeCollection(ctx, collectionAbilities); err != nil {
		return err
	}

	bw := r.client.BulkWriter(ctx)
	col := r.client.Collection(collectionAbilities)
	for _, a := range abilities {
		if _, err := bw.Set(col.Doc(a.Name), a); err != nil {
			return goerr.Wrap(err, "failed to enqueue ability", goerr.V("name", a.Name))
		}
	}
	bw.End()
	return nil
}

// wipeCollection deletes all documents so a load can run repeatedly
// without duplicates.
func (r *Firestore) wipeCollection(ctx context.Context, name string) error {
	bw := r.client.BulkWriter(ctx)
	refs := r.client.Collection(name).DocumentRefs(ctx)
	for {
		ref, err := refs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(model.ErrStoreUnavailable, "failed to list documents", goerr.V("collection", name))
		}
		if _, err := bw.Delete(ref); err != nil {
			return goerr.Wrap(err, "failed to enqueue delete", goerr.V("doc", ref.ID))
		}
	}
	bw.End()
	return nil
}

func (r *Firestore) SetPokemonVector(ctx context.Context, id model.PokedexID, embedding []float32) error {
	return r.setVector(ctx, collectionPokemon, id.DocID(), embedding)
}

func (r *Firestore) SetMoveVector(ctx context.Context, name string, embedding []float32) error {
	return r.setVector(ctx, collectionMoves, name, embedding)
}

func (r *Firestore) SetAbilityVector(ctx context.Context, name string, embedding []float32) error {
	return r.setVector(ctx, collectionAbilities, name, embedding)
}

func (r *Firestore) setVector(ctx context.Context, collection, docID string, embedding []float32) error {
	_, err := r.client.Collection(collection).Doc(docID).Update(ctx, []firestore.Update{
		{Path: vectorField, Value: firestore.Vector32(embedding)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrRecordNotFound, "document not found", goerr.V("collection", collection), goerr.V("doc", docID))
		}
		return goerr.Wrap(model.ErrStoreUnavailable, "failed to update vector", goerr.V("collection", collection), goerr.V("doc", docID))
	}
	return nil
}
