package workout

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const workoutsCollection = "workouts"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores workouts under users/{userID}/workouts.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) collection(userID string) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(userID).Collection(workoutsCollection)
}

func (r *firestoreRepository) Append(ctx context.Context, record Record) error {
	_, err := r.collection(record.UserID).Doc(record.ID).Create(ctx, record)
	if status.Code(err) == codes.AlreadyExists {
		return ErrConflict
	}
	return err
}

func (r *firestoreRepository) List(ctx context.Context, userID string) ([]Record, error) {
	iter := r.collection(userID).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var records []Record
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}

		var record Record
		if err := doc.DataTo(&record); err != nil {
			return nil, fmt.Errorf("decode workout %s: %w", doc.Ref.ID, err)
		}
		record.ID = doc.Ref.ID
		records = append(records, record)
	}
	return records, nil
}
