package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookclub-server/internal/domain"
	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/metrics"
	"github.com/listenupapp/bookclub-server/internal/store"
	"github.com/listenupapp/bookclub-server/internal/validation"
)

func TestReviewService_LogCreatesThenUpdates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "usr-a", "Alice")
	env.book(t, "book-1", "The Dispossessed")

	r, created, err := env.reviews.Log(ctx, "usr-a", "book-1", ReviewInput{Rating: intp(4), Text: strp("<p>An <strong>ambiguous</strong> utopia.</p>")})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 4, *r.Rating)
	assert.Equal(t, "An **ambiguous** utopia.", *r.Text)
	assert.Equal(t, "The Dispossessed", r.BookTitle())

	i, err := env.interactions.Get(ctx, "usr-a", "book-1")
	require.NoError(t, err)
	assert.True(t, i.IsRead)
	assert.Equal(t, 4, *i.Rating)

	again, created, err := env.reviews.Log(ctx, "usr-a", "book-1", ReviewInput{Rating: intp(5)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, r.ID, again.ID)
	assert.Equal(t, 5, *again.Rating)
	require.NotNil(t, again.Text, "logging a rating keeps the text")
	assert.Equal(t, "An **ambiguous** utopia.", *again.Text)

	i, err = env.interactions.Get(ctx, "usr-a", "book-1")
	require.NoError(t, err)
	assert.Equal(t, 5, *i.Rating)
}

func TestReviewService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "usr-a", "Alice")
	env.book(t, "book-1", "Dune")

	_, err := env.reviews.Create(ctx, "", "book-1", ReviewInput{Rating: intp(3)})
	assertCode(t, err, domainerrors.CodeUnauthenticated)

	_, err = env.reviews.Create(ctx, "usr-a", "book-1", ReviewInput{Rating: intp(6)})
	assertCode(t, err, domainerrors.CodeValidation)

	_, err = env.reviews.Create(ctx, "usr-a", "book-missing", ReviewInput{Rating: intp(3)})
	assertCode(t, err, domainerrors.CodeNotFound)

	r, err := env.reviews.Create(ctx, "usr-a", "book-1", ReviewInput{Text: strp("   ")})
	require.NoError(t, err)
	assert.Nil(t, r.Text, "blank text is stored as no text")

	_, err = env.reviews.Create(ctx, "usr-a", "book-1", ReviewInput{Rating: intp(3)})
	assertCode(t, err, domainerrors.CodeConflict)
}

func TestReviewService_UpdateOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "usr-a", "Alice")
	env.user(t, "usr-b", "Bob")
	env.book(t, "book-1", "Dune")

	r, err := env.reviews.Create(ctx, "usr-a", "book-1", ReviewInput{Rating: intp(2)})
	require.NoError(t, err)

	_, err = env.reviews.Update(ctx, r.ID, "", ReviewInput{Rating: intp(3)})
	assertCode(t, err, domainerrors.CodeUnauthenticated)

	_, err = env.reviews.Update(ctx, r.ID, "usr-b", ReviewInput{Rating: intp(3)})
	assertCode(t, err, domainerrors.CodeUnauthorized)

	_, err = env.reviews.Update(ctx, "rev-missing", "usr-a", ReviewInput{Rating: intp(3)})
	assertCode(t, err, domainerrors.CodeNotFound)

	updated, err := env.reviews.Update(ctx, r.ID, "usr-a", ReviewInput{Rating: intp(3), Text: strp("Better on reread.")})
	require.NoError(t, err)
	assert.Equal(t, 3, *updated.Rating)
	assert.Equal(t, "Better on reread.", *updated.Text)
	require.NotNil(t, updated.User)
	assert.Equal(t, "Alice", updated.User.DisplayName)

	assert.Empty(t, env.inbox(t, "usr-a"), "edits do not notify")
}

func TestReviewService_DeleteCascadesAndCleansRating(t *testing.T) {
	tests := []struct {
		name        string
		patch       domain.InteractionPatch
		wantRating  bool
		wantPresent bool
	}{
		{
			name: "rating came only from the review",
		},
		{
			name:        "currently reading does not retain",
			patch:       domain.InteractionPatch{IsCurrentlyReading: boolp(true)},
			wantPresent: true,
		},
		{
			name:        "owned retains",
			patch:       domain.InteractionPatch{IsOwned: boolp(true)},
			wantRating:  true,
			wantPresent: true,
		},
		{
			name:        "read retains",
			patch:       domain.InteractionPatch{IsRead: boolp(true)},
			wantRating:  true,
			wantPresent: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			env.user(t, "usr-a", "Alice")
			env.user(t, "usr-b", "Bob")
			env.book(t, "book-1", "Dune")

			if tt.patch != (domain.InteractionPatch{}) {
				_, err := env.interactions.Update(ctx, "usr-a", "book-1", tt.patch)
				require.NoError(t, err)
			}

			r, err := env.reviews.Create(ctx, "usr-a", "book-1", ReviewInput{Rating: intp(4)})
			require.NoError(t, err)
			c, err := env.comments.AddComment(ctx, domain.ReviewTarget(r.ID), "usr-b", "Agreed", domain.TopLevel())
			require.NoError(t, err)
			_, err = env.likes.Like(ctx, domain.CommentTarget(c.ID), "usr-a")
			require.NoError(t, err)
			_, err = env.likes.Like(ctx, domain.ReviewTarget(r.ID), "usr-b")
			require.NoError(t, err)

			require.NoError(t, env.reviews.Delete(ctx, r.ID, "usr-a"))

			_, err = env.reviews.Get(ctx, r.ID, "")
			assertCode(t, err, domainerrors.CodeNotFound)
			_, err = env.db.GetComment(ctx, c.ID)
			assert.ErrorIs(t, err, store.ErrNotFound, "comments cascade")
			n, err := env.db.CountLikes(ctx, domain.CommentTarget(c.ID))
			require.NoError(t, err)
			assert.Zero(t, n)

			stored, err := env.db.GetInteraction(ctx, "usr-a", "book-1")
			if !tt.wantPresent {
				assert.ErrorIs(t, err, store.ErrNotFound, "empty interaction is pruned")
				return
			}
			require.NoError(t, err)
			if tt.wantRating {
				require.NotNil(t, stored.Rating)
				assert.Equal(t, 4, *stored.Rating)
			} else {
				assert.Nil(t, stored.Rating)
			}
		})
	}
}

func TestReviewService_CreateAndUpdateLeaveReadStateAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "usr-a", "Alice")
	env.book(t, "book-1", "Dune")

	_, err := env.interactions.Update(ctx, "usr-a", "book-1", domain.InteractionPatch{IsCurrentlyReading: boolp(true)})
	require.NoError(t, err)

	r, err := env.reviews.Create(ctx, "usr-a", "book-1", ReviewInput{Rating: intp(4)})
	require.NoError(t, err)
	i, err := env.interactions.Get(ctx, "usr-a", "book-1")
	require.NoError(t, err)
	assert.False(t, i.IsRead)
	assert.True(t, i.IsCurrentlyReading)
	assert.Equal(t, 4, *i.Rating)

	_, err = env.reviews.Update(ctx, r.ID, "usr-a", ReviewInput{Rating: intp(5)})
	require.NoError(t, err)
	i, err = env.interactions.Get(ctx, "usr-a", "book-1")
	require.NoError(t, err)
	assert.False(t, i.IsRead, "editing a review does not mark the book read")
	assert.Equal(t, 5, *i.Rating)

	require.NoError(t, env.reviews.Delete(ctx, r.ID, "usr-a"))
	i, err = env.interactions.Get(ctx, "usr-a", "book-1")
	require.NoError(t, err)
	assert.True(t, i.IsCurrentlyReading)
	assert.Nil(t, i.Rating, "currently reading does not keep the rating")
}

func TestReviewService_UpdateWithoutRatingKeepsInteractionInStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "usr-a", "Alice")
	env.user(t, "usr-b", "Bob")
	env.book(t, "book-1", "Dune")
	env.book(t, "book-2", "Emma")

	_, err := env.interactions.Update(ctx, "usr-a", "book-1", domain.InteractionPatch{IsCurrentlyReading: boolp(true)})
	require.NoError(t, err)
	r, err := env.reviews.Create(ctx, "usr-a", "book-1", ReviewInput{Rating: intp(5)})
	require.NoError(t, err)

	updated, err := env.reviews.Update(ctx, r.ID, "usr-a", ReviewInput{Text: strp("Only words now.")})
	require.NoError(t, err)
	assert.Nil(t, updated.Rating)
	i, err := env.interactions.Get(ctx, "usr-a", "book-1")
	require.NoError(t, err)
	assert.Nil(t, i.Rating, "review and interaction agree once the rating is removed")

	// An owned book keeps the rating the user gave it.
	_, err = env.interactions.Update(ctx, "usr-b", "book-2", domain.InteractionPatch{IsOwned: boolp(true)})
	require.NoError(t, err)
	owned, err := env.reviews.Create(ctx, "usr-b", "book-2", ReviewInput{Rating: intp(3)})
	require.NoError(t, err)
	_, err = env.reviews.Update(ctx, owned.ID, "usr-b", ReviewInput{Text: strp("Matchmaking.")})
	require.NoError(t, err)
	i, err = env.interactions.Get(ctx, "usr-b", "book-2")
	require.NoError(t, err)
	require.NotNil(t, i.Rating)
	assert.Equal(t, 3, *i.Rating)
}

func TestReviewService_DeleteSurvivesCleanupFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "usr-a", "Alice")
	env.user(t, "usr-b", "Bob")
	env.book(t, "book-1", "Dune")

	r, err := env.reviews.Create(ctx, "usr-a", "book-1", ReviewInput{Rating: intp(4)})
	require.NoError(t, err)

	assertCode(t, env.reviews.Delete(ctx, r.ID, "usr-b"), domainerrors.CodeUnauthorized)
	assertCode(t, env.reviews.Delete(ctx, "rev-missing", "usr-a"), domainerrors.CodeNotFound)

	env.store.failRatingCleanup = true
	before := testutil.ToFloat64(metrics.RatingCleanups.WithLabelValues(metrics.ResultError))

	require.NoError(t, env.reviews.Delete(ctx, r.ID, "usr-a"))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RatingCleanups.WithLabelValues(metrics.ResultError)))
}

func TestReviewService_ListForBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.book(t, "book-1", "Dune")
	for _, u := range []string{"usr-a", "usr-b", "usr-c"} {
		env.user(t, u, u)
		_, err := env.reviews.Create(ctx, u, "book-1", ReviewInput{Rating: intp(3)})
		require.NoError(t, err)
	}

	page, err := env.reviews.ListForBook(ctx, "book-1", "usr-a", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "usr-c", page.Items[0].UserID, "newest first")

	_, err = env.reviews.ListForBook(ctx, "book-missing", "", 1, 10)
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestReviewService_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "usr-a", "Alice")
	env.user(t, "usr-b", "Bob")
	env.book(t, "book-1", "The Left Hand of Darkness")
	env.book(t, "book-2", "Dune")

	winter, err := env.reviews.Create(ctx, "usr-a", "book-1", ReviewInput{Text: strp("Winter on Gethen is brutal.")})
	require.NoError(t, err)
	dune, err := env.reviews.Create(ctx, "usr-b", "book-2", ReviewInput{Text: strp("Deserts, spice and a brutal empire.")})
	require.NoError(t, err)

	results, err := env.reviews.Search(ctx, "brutal", "usr-a", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = env.reviews.Search(ctx, "darkness", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, winter.ID, results[0].ID)

	require.NoError(t, env.reviews.Delete(ctx, dune.ID, "usr-b"))
	results, err = env.reviews.Search(ctx, "brutal", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, winter.ID, results[0].ID)
}

func TestReviewService_ReindexIfEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.user(t, "usr-a", "Alice")
	env.book(t, "book-1", "The Dispossessed")
	env.book(t, "book-2", "The Lathe of Heaven")

	// Written while search was switched off.
	unindexed := NewReviewService(env.store, nil, validation.New(), testSocialConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := unindexed.Create(ctx, "usr-a", "book-1", ReviewInput{Text: strp("Anarres and Urras.")})
	require.NoError(t, err)
	_, err = unindexed.Create(ctx, "usr-a", "book-2", ReviewInput{Text: strp("Effective dreams.")})
	require.NoError(t, err)

	n, err := unindexed.ReindexIfEmpty(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = env.reviews.ReindexIfEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := env.reviews.Search(ctx, "anarres", "", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// A populated index is left alone.
	n, err = env.reviews.ReindexIfEmpty(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
