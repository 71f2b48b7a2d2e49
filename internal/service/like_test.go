package service

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookclub-server/internal/domain"
	domainerrors "github.com/listenupapp/bookclub-server/internal/errors"
	"github.com/listenupapp/bookclub-server/internal/metrics"
)

func TestLikeService_DoubleLikeNotifiesOnce(t *testing.T) {
	env, r, _ := threadEnv(t)
	ctx := context.Background()

	first, err := env.likes.Like(ctx, domain.ReviewTarget(r.ID), "usr-bob")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 1, first.LikeCount)

	second, err := env.likes.Like(ctx, domain.ReviewTarget(r.ID), "usr-bob")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.True(t, second.Liked)
	assert.Equal(t, 1, second.LikeCount)

	var likes []*domain.Notification
	for _, n := range env.inbox(t, "usr-alice") {
		if n.Type == domain.NotificationLikeReview {
			likes = append(likes, n)
		}
	}
	require.Len(t, likes, 1)
	assert.Equal(t, domain.EntityReview, likes[0].EntityType)
	assert.Equal(t, "Dune", likes[0].EntityParentTitle)

	reviewed, err := env.reviews.Get(ctx, r.ID, "usr-bob")
	require.NoError(t, err)
	assert.True(t, reviewed.LikedByViewer)
	assert.Equal(t, 1, reviewed.LikeCount)
}

func TestLikeService_SelfLikeIsSilent(t *testing.T) {
	env, r, _ := threadEnv(t)
	before := len(env.inbox(t, "usr-alice"))

	res, err := env.likes.Like(context.Background(), domain.ReviewTarget(r.ID), "usr-alice")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Len(t, env.inbox(t, "usr-alice"), before)
}

func TestLikeService_CommentLikeCarriesBookTitle(t *testing.T) {
	env, _, c := threadEnv(t)

	_, err := env.likes.Like(context.Background(), domain.CommentTarget(c.ID), "usr-carol")
	require.NoError(t, err)

	bob := env.inbox(t, "usr-bob")
	require.Len(t, bob, 1)
	assert.Equal(t, domain.NotificationLikeReview, bob[0].Type)
	assert.Equal(t, domain.EntityComment, bob[0].EntityType)
	assert.Equal(t, c.ID, bob[0].EntityID)
	assert.Equal(t, "Dune", bob[0].EntityParentTitle)
}

func TestLikeService_UnlikeWithoutLike(t *testing.T) {
	env, r, _ := threadEnv(t)

	res, err := env.likes.Unlike(context.Background(), domain.ReviewTarget(r.ID), "usr-carol")
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.LikeCount)
}

func TestLikeService_UnlikeKeepsNotification(t *testing.T) {
	env, r, _ := threadEnv(t)
	ctx := context.Background()

	_, err := env.likes.Like(ctx, domain.ReviewTarget(r.ID), "usr-carol")
	require.NoError(t, err)
	before := len(env.inbox(t, "usr-alice"))

	res, err := env.likes.Unlike(ctx, domain.ReviewTarget(r.ID), "usr-carol")
	require.NoError(t, err)
	assert.Equal(t, 0, res.LikeCount)
	assert.Len(t, env.inbox(t, "usr-alice"), before)
}

func TestLikeService_Errors(t *testing.T) {
	env, r, _ := threadEnv(t)
	ctx := context.Background()

	_, err := env.likes.Like(ctx, domain.ReviewTarget(r.ID), "")
	assertCode(t, err, domainerrors.CodeUnauthenticated)

	_, err = env.likes.Like(ctx, domain.ReviewTarget("rev-missing"), "usr-bob")
	assertCode(t, err, domainerrors.CodeNotFound)

	_, err = env.likes.Like(ctx, domain.CommentTarget("cmt-missing"), "usr-bob")
	assertCode(t, err, domainerrors.CodeNotFound)

	_, err = env.likes.Like(ctx, domain.ListTarget("list-1"), "usr-bob")
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestLikeService_ConcurrentLikes(t *testing.T) {
	env, r, _ := threadEnv(t)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.likes.Like(context.Background(), domain.ReviewTarget(r.ID), "usr-carol")
			if !assert.NoError(t, err) {
				return
			}
			if res.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	n, err := env.db.CountLikes(context.Background(), domain.ReviewTarget(r.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	likes := 0
	for _, ntf := range env.inbox(t, "usr-alice") {
		if ntf.Type == domain.NotificationLikeReview {
			likes++
		}
	}
	assert.Equal(t, 1, likes)
}

func TestLikeService_FanoutFailureDoesNotFailLike(t *testing.T) {
	env, r, _ := threadEnv(t)
	env.store.failNotifications = true
	before := testutil.ToFloat64(metrics.FanoutFailures.WithLabelValues("insert"))

	res, err := env.likes.Like(context.Background(), domain.ReviewTarget(r.ID), "usr-carol")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 1, res.LikeCount)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.FanoutFailures.WithLabelValues("insert")))
}
