// Package main prints a summary of a book club database and audits it for
// rows that break the social layer's invariants. It exits non-zero when an
// audit check finds anything.
//
// Usage:
//
//	DATA_PATH=~/bookclub go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/listenupapp/bookclub-server/internal/config"
	"github.com/listenupapp/bookclub-server/internal/store/sqlite"
)

var tables = []string{"users", "books", "reviews", "comments", "likes", "lists", "notifications", "interactions"}

// Each audit query counts offending rows; zero means healthy.
var audits = []struct{ name, query string }{
	{"replies nested deeper than one level", `
		SELECT COUNT(*) FROM comments c
		JOIN comments p ON p.id = c.parent_comment_id
		WHERE p.parent_comment_id IS NOT NULL`},
	{"replies on a different target than their parent", `
		SELECT COUNT(*) FROM comments c
		JOIN comments p ON p.id = c.parent_comment_id
		WHERE c.review_id IS NOT p.review_id OR c.list_id IS NOT p.list_id`},
	{"orphaned comments", `
		SELECT COUNT(*) FROM comments c
		WHERE (c.review_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM reviews r WHERE r.id = c.review_id))
		   OR (c.list_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM lists l WHERE l.id = c.list_id))
		   OR (c.parent_comment_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM comments p WHERE p.id = c.parent_comment_id))`},
	{"orphaned likes", `
		SELECT COUNT(*) FROM likes lk
		WHERE (lk.review_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM reviews r WHERE r.id = lk.review_id))
		   OR (lk.comment_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM comments c WHERE c.id = lk.comment_id))`},
	{"duplicate likes", `
		SELECT COUNT(*) FROM (
			SELECT user_id, review_id, comment_id FROM likes
			GROUP BY user_id, review_id, comment_id HAVING COUNT(*) > 1)`},
	{"empty interactions", `
		SELECT COUNT(*) FROM interactions
		WHERE is_read = 0 AND is_currently_reading = 0 AND is_on_watchlist = 0
		  AND is_liked = 0 AND is_owned = 0 AND rating IS NULL`},
}

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/bookclub")
	}
	dbPath := config.DataConfig{BasePath: dataPath}.DatabasePath()

	if _, err := os.Stat(dbPath); err != nil {
		log.Fatalf("No database at %s: %v", dbPath, err)
	}

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	db := s.DB()

	fmt.Println("=== Database Inspection ===")
	fmt.Printf("Path: %s\n\n", dbPath)

	for _, table := range tables {
		var n int
		//#nosec G202 -- table names come from the fixed list above
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			log.Fatalf("Failed to count %s: %v", table, err)
		}
		fmt.Printf("%-14s %d\n", table, n)
	}

	var tombstoned int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE state = 'tombstoned'`).Scan(&tombstoned); err != nil {
		log.Fatalf("Failed to count tombstones: %v", err)
	}
	fmt.Printf("%-14s %d\n", "  tombstoned", tombstoned)

	fmt.Println("\n=== Most discussed reviews ===")
	rows, err := db.QueryContext(ctx, `
		SELECT r.id, u.display_name, b.title,
			(SELECT COUNT(*) FROM comments c WHERE c.review_id = r.id) AS comments,
			(SELECT COUNT(*) FROM likes l WHERE l.review_id = r.id) AS likes
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN books b ON b.id = r.book_id
		ORDER BY comments DESC, likes DESC
		LIMIT 5`)
	if err != nil {
		log.Fatalf("Failed to query reviews: %v", err)
	}
	for rows.Next() {
		var id, author, title string
		var comments, likes int
		if err := rows.Scan(&id, &author, &title, &comments, &likes); err != nil {
			log.Fatalf("Failed to read review row: %v", err)
		}
		fmt.Printf("%s  %s on %q: %d comments, %d likes\n", id, author, title, comments, likes)
	}
	rows.Close()

	fmt.Println("\n=== Unread notifications ===")
	rows, err = db.QueryContext(ctx, `
		SELECT u.display_name, COUNT(n.id)
		FROM users u
		LEFT JOIN notifications n ON n.user_id = u.id AND n.is_read = 0
		GROUP BY u.id
		ORDER BY u.display_name`)
	if err != nil {
		log.Fatalf("Failed to query notifications: %v", err)
	}
	for rows.Next() {
		var name string
		var unread int
		if err := rows.Scan(&name, &unread); err != nil {
			log.Fatalf("Failed to read notification row: %v", err)
		}
		fmt.Printf("%-14s %d\n", name, unread)
	}
	rows.Close()

	fmt.Println("\n=== Audit ===")
	problems := 0
	for _, a := range audits {
		var n int
		if err := db.QueryRowContext(ctx, a.query).Scan(&n); err != nil {
			log.Fatalf("Audit %q failed: %v", a.name, err)
		}
		status := "ok"
		if n > 0 {
			status = fmt.Sprintf("%d found", n)
			problems += n
		}
		fmt.Printf("%-50s %s\n", a.name, status)
	}

	if problems > 0 {
		fmt.Printf("\n%d problem rows found\n", problems)
		s.Close()
		os.Exit(1)
	}
}
