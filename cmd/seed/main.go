// Package main provides a tool to seed the database with a small reading
// group: users, books, reviews, comment threads and likes.
//
// Activity goes through the services, so interactions and notifications are
// created exactly as they would be through the API. The tool prints a bearer
// token per user for trying the API by hand.
//
// Usage:
//
//	DATA_PATH=~/bookclub go run ./cmd/seed
//	DATA_PATH=~/bookclub go run ./cmd/seed --users 8
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/listenupapp/bookclub-server/internal/auth"
	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/domain"
	"github.com/listenupapp/bookclub-server/internal/id"
	"github.com/listenupapp/bookclub-server/internal/logger"
	"github.com/listenupapp/bookclub-server/internal/service"
	"github.com/listenupapp/bookclub-server/internal/store/sqlite"
	"github.com/listenupapp/bookclub-server/internal/validation"
)

var userCount = flag.Int("users", 5, "Number of test users to create")

var seedBooks = []struct{ title, author string }{
	{"The Left Hand of Darkness", "Ursula K. Le Guin"},
	{"Dune", "Frank Herbert"},
	{"Piranesi", "Susanna Clarke"},
	{"The Remains of the Day", "Kazuo Ishiguro"},
	{"Station Eleven", "Emily St. John Mandel"},
	{"A Memory Called Empire", "Arkady Martine"},
}

var seedReviews = []string{
	"<p>Slow to start, then <strong>impossible</strong> to put down.</p>",
	"Beautifully written. The ending stayed with me for days.",
	"Not for me, but I can see why people love it.",
	"<p>Reread this for the club and liked it <em>more</em> the second time.</p>",
	"The world-building carries it. The characters less so.",
}

var seedComments = []string{
	"Completely agree about the ending.",
	"Which chapter did it click for you?",
	"I had the opposite reaction, honestly.",
	"Adding this to my list.",
	"The audiobook narration is great too.",
}

var names = []string{"Alice", "Bob", "Carol", "Dmitri", "Eun-ji", "Farah", "Gus", "Hana"}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/bookclub")
	}
	data := config.DataConfig{BasePath: dataPath}

	fmt.Printf("Opening database at: %s\n", data.DatabasePath())

	lg := logger.New(logger.Config{Environment: "development", Level: logger.ParseLevel("warn")})

	// Creates the data directory on first run.
	key, err := auth.LoadOrGenerateKey(dataPath)
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}

	db, err := sqlite.Open(data.DatabasePath(), lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	tokens, err := auth.NewTokenService(key, 30*24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	cfg := config.SocialConfig{
		DefaultPageSize:  20,
		MaxPageSize:      100,
		FanoutTimeout:    5 * time.Second,
		MaxCommentLength: 2000,
		MaxReviewLength:  20000,
	}
	v := validation.New()
	notifications := service.NewNotificationService(db, nil, cfg, lg.Logger)
	reviews := service.NewReviewService(db, nil, v, cfg, lg.Logger)
	comments := service.NewCommentService(db, notifications, v, cfg, lg.Logger)
	likes := service.NewLikeService(db, notifications, lg.Logger)
	lists := service.NewListService(db, v, lg.Logger)

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	users := createUsers(ctx, db, min(*userCount, len(names)))
	books := createBooks(ctx, db)

	// Every user reviews a few books.
	var posted []*domain.Review
	for _, u := range users {
		for _, b := range pick(rng, books, 2+rng.Intn(3)) {
			rating := 1 + rng.Intn(5)
			text := seedReviews[rng.Intn(len(seedReviews))]
			r, _, err := reviews.Log(ctx, u.ID, b.ID, service.ReviewInput{Rating: &rating, Text: &text})
			if err != nil {
				log.Printf("Failed to log review for %s: %v", u.DisplayName, err)
				continue
			}
			posted = append(posted, r)
		}
	}
	fmt.Printf("Created %d reviews\n", len(posted))

	// Others comment, reply and like.
	commentCount, likeCount := 0, 0
	for _, r := range posted {
		for _, u := range users {
			if u.ID == r.UserID || rng.Float32() > 0.4 {
				continue
			}
			if _, err := likes.Like(ctx, domain.ReviewTarget(r.ID), u.ID); err == nil {
				likeCount++
			}

			c, err := comments.AddComment(ctx, domain.ReviewTarget(r.ID), u.ID, seedComments[rng.Intn(len(seedComments))], domain.TopLevel())
			if err != nil {
				log.Printf("Failed to comment: %v", err)
				continue
			}
			commentCount++

			// The review author answers some of them.
			if rng.Float32() < 0.5 {
				if _, err := comments.AddComment(ctx, domain.ReviewTarget(r.ID), r.UserID, "Thanks for reading it with me!", domain.ReplyTo(c.ID)); err == nil {
					commentCount++
				}
			}
		}
	}
	fmt.Printf("Created %d comments and %d likes\n", commentCount, likeCount)

	for _, u := range users {
		if _, err := lists.Create(ctx, u.ID, service.CreateListInput{
			Title:       u.DisplayName + "'s favourites",
			Description: "Books I keep recommending.",
		}); err != nil {
			log.Printf("Failed to create list for %s: %v", u.DisplayName, err)
		}
	}

	fmt.Println("\n=== Tokens ===")
	for _, u := range users {
		token, err := tokens.GenerateAccessToken(u)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		unread, _ := notifications.UnreadCount(ctx, u.ID)
		fmt.Printf("%-8s %s (%d unread)\n  %s\n", u.DisplayName, u.ID, unread, token)
	}
}

func createUsers(ctx context.Context, db *sqlite.Store, n int) []*domain.User {
	users := make([]*domain.User, 0, n)
	for _, name := range names[:n] {
		uid, err := id.Generate("usr")
		if err != nil {
			log.Fatalf("Failed to generate user ID: %v", err)
		}
		u := &domain.User{ID: uid, DisplayName: name}
		if err := db.CreateUser(ctx, u); err != nil {
			log.Fatalf("Failed to create user %s: %v", name, err)
		}
		users = append(users, u)
	}
	fmt.Printf("Created %d users\n", len(users))
	return users
}

func createBooks(ctx context.Context, db *sqlite.Store) []*domain.Book {
	books := make([]*domain.Book, 0, len(seedBooks))
	for _, sb := range seedBooks {
		bid, err := id.Generate("book")
		if err != nil {
			log.Fatalf("Failed to generate book ID: %v", err)
		}
		b := &domain.Book{ID: bid, Title: sb.title, Author: sb.author}
		if err := db.CreateBook(ctx, b); err != nil {
			log.Fatalf("Failed to create book %q: %v", sb.title, err)
		}
		books = append(books, b)
	}
	fmt.Printf("Created %d books\n", len(books))
	return books
}

func pick(rng *rand.Rand, books []*domain.Book, n int) []*domain.Book {
	shuffled := make([]*domain.Book, len(books))
	copy(shuffled, books)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:min(n, len(shuffled))]
}
