package progression

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const progressionCollection = "progression"

type firestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore keeps one progression/{userID} document per user.
func NewFirestoreStore(client *firestore.Client) StateStore {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) Load(ctx context.Context, userID string) (State, error) {
	if userID == "" {
		return State{}, ErrMissingUserID
	}
	doc, err := s.client.Collection(progressionCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return State{}, ErrStateNotFound
	}
	if err != nil {
		return State{}, err
	}

	var state State
	if err := doc.DataTo(&state); err != nil {
		return State{}, fmt.Errorf("decode progression %s: %w", userID, err)
	}
	return state, nil
}

func (s *firestoreStore) Save(ctx context.Context, userID string, state State) error {
	if userID == "" {
		return ErrMissingUserID
	}
	_, err := s.client.Collection(progressionCollection).Doc(userID).Set(ctx, state)
	return err
}
