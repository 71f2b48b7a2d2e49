package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/store"
)

func setInteraction(t *testing.T, s *Store, userID, bookID string, fn func(*domain.Interaction)) {
	t.Helper()
	_, err := s.UpdateInteraction(context.Background(), userID, bookID, func(i *domain.Interaction) error {
		fn(i)
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateInteraction: %v", err)
	}
}

func TestClearRatingIfUnretained(t *testing.T) {
	tests := []struct {
		name        string
		set         func(*domain.Interaction)
		wantCleared bool
		wantRow     bool
	}{
		{
			name:        "no flags clears and prunes",
			set:         func(i *domain.Interaction) {},
			wantCleared: true,
			wantRow:     false,
		},
		{
			name:        "currently reading does not retain",
			set:         func(i *domain.Interaction) { i.IsCurrentlyReading = true },
			wantCleared: true,
			wantRow:     true,
		},
		{
			name:    "read retains",
			set:     func(i *domain.Interaction) { i.IsRead = true },
			wantRow: true,
		},
		{
			name:    "watchlist retains",
			set:     func(i *domain.Interaction) { i.IsOnWatchlist = true },
			wantRow: true,
		},
		{
			name:    "liked retains",
			set:     func(i *domain.Interaction) { i.IsLiked = true },
			wantRow: true,
		},
		{
			name:    "owned retains",
			set:     func(i *domain.Interaction) { i.IsOwned = true },
			wantRow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()
			insertTestUser(t, s, "usr-a", "Alice")
			insertTestBook(t, s, "book-1", "Dune")

			setInteraction(t, s, "usr-a", "book-1", func(i *domain.Interaction) {
				i.Rating = intp(4)
				tt.set(i)
			})

			cleared, err := s.ClearRatingIfUnretained(ctx, "usr-a", "book-1")
			if err != nil {
				t.Fatalf("ClearRatingIfUnretained: %v", err)
			}
			if cleared != tt.wantCleared {
				t.Errorf("cleared: got %v, want %v", cleared, tt.wantCleared)
			}

			got, err := s.GetInteraction(ctx, "usr-a", "book-1")
			if !tt.wantRow {
				if !errors.Is(err, store.ErrNotFound) {
					t.Errorf("expected pruned row, got %+v, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetInteraction: %v", err)
			}
			if tt.wantCleared && got.Rating != nil {
				t.Errorf("rating should be cleared, got %d", *got.Rating)
			}
			if !tt.wantCleared && (got.Rating == nil || *got.Rating != 4) {
				t.Errorf("rating should be kept, got %v", got.Rating)
			}
		})
	}
}

func TestUpdateInteraction_EmptyIsDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "usr-a", "Alice")
	insertTestBook(t, s, "book-1", "Dune")

	setInteraction(t, s, "usr-a", "book-1", func(i *domain.Interaction) { i.IsOnWatchlist = true })
	setInteraction(t, s, "usr-a", "book-1", func(i *domain.Interaction) { i.IsOnWatchlist = false })

	if _, err := s.GetInteraction(ctx, "usr-a", "book-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	list, err := s.ListInteractions(ctx, "usr-a")
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("ListInteractions: got %d rows", len(list))
	}
}

func TestUpdateInteraction_CallbackErrorRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	insertTestUser(t, s, "usr-a", "Alice")
	insertTestBook(t, s, "book-1", "Dune")

	boom := errors.New("boom")
	_, err := s.UpdateInteraction(ctx, "usr-a", "book-1", func(i *domain.Interaction) error {
		i.IsOwned = true
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, err := s.GetInteraction(ctx, "usr-a", "book-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected no row, got %v", err)
	}
}
