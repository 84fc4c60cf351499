package workout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Record is one logged workout. Records are append-only; Date is kept as the
// ISO timestamp the client sent so malformed values surface downstream.
type Record struct {
	ID        string     `json:"id" firestore:"id"`
	UserID    string     `json:"user_id" firestore:"user_id"`
	Date      string     `json:"date" firestore:"date"`
	Exercises []Exercise `json:"exercises" firestore:"exercises"`
	CreatedAt time.Time  `json:"created_at" firestore:"created_at"`
}

// Exercise groups the sets performed for one movement.
type Exercise struct {
	Name string `json:"name" firestore:"name" validate:"required,max=120"`
	Sets []Set  `json:"sets" firestore:"sets" validate:"dive"`
}

// Set is a single set of an exercise.
type Set struct {
	Reps     int     `json:"reps" firestore:"reps" validate:"gte=0,lte=1000"`
	WeightKg float64 `json:"weight_kg" firestore:"weight_kg" validate:"gte=0,lte=2000"`
}

// SetCount returns the number of sets across all exercises.
func (r Record) SetCount() int {
	total := 0
	for _, ex := range r.Exercises {
		total += len(ex.Sets)
	}
	return total
}

// Volume returns the lifted volume in kilograms (reps x weight summed over sets).
func (r Record) Volume() float64 {
	var total float64
	for _, ex := range r.Exercises {
		for _, s := range ex.Sets {
			total += float64(s.Reps) * s.WeightKg
		}
	}
	return total
}

// CreateInput captures the data required to log a workout.
type CreateInput struct {
	UserID    string     `validate:"required"`
	Date      *time.Time `validate:"omitempty"`
	Exercises []Exercise `validate:"required,min=1,max=50,dive"`
}

var validate = validator.New()

// Validate ensures the input fields meet the domain constraints.
func (i CreateInput) Validate() error {
	if err := validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(problems, "; "))
		}
		return err
	}
	return nil
}

// Repository encapsulates persistence for the workout log.
type Repository interface {
	Append(ctx context.Context, record Record) error
	List(ctx context.Context, userID string) ([]Record, error)
}

// ErrConflict indicates a duplicate identifier collision.
var ErrConflict = errors.New("workout already exists")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrMissingUserID indicates a required user id was absent.
var ErrMissingUserID = errors.New("user id is required")

// Clock delivers the current time; extracted for deterministic testing.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces unique identifiers for new records.
type IDGenerator interface {
	NewID() string
}

// Service orchestrates the workout log operations.
type Service struct {
	repo  Repository
	clock Clock
	ids   IDGenerator
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, clock Clock, ids IDGenerator) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}
	return &Service{repo: repo, clock: clock, ids: ids}, nil
}

// Log appends a new workout for the given user.
func (s *Service) Log(ctx context.Context, input CreateInput) (Record, error) {
	if err := input.Validate(); err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	now := s.clock.Now().UTC()
	date := now
	if input.Date != nil {
		date = input.Date.UTC()
	}

	exercises := make([]Exercise, 0, len(input.Exercises))
	for _, ex := range input.Exercises {
		sets := make([]Set, len(ex.Sets))
		copy(sets, ex.Sets)
		exercises = append(exercises, Exercise{Name: strings.TrimSpace(ex.Name), Sets: sets})
	}

	record := Record{
		ID:        s.ids.NewID(),
		UserID:    input.UserID,
		Date:      date.Format(time.RFC3339Nano),
		Exercises: exercises,
		CreatedAt: now,
	}

	if err := s.repo.Append(ctx, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// List returns the user's log in append order.
func (s *Service) List(ctx context.Context, userID string) ([]Record, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.repo.List(ctx, userID)
}
