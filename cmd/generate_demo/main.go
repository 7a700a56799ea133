// Command generate_demo creates a demo database with a small developer library.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/catalog"
	"github.com/devbook/devbook/internal/config"
	"github.com/devbook/devbook/internal/database"
	"github.com/devbook/devbook/internal/database/books"
	"github.com/devbook/devbook/internal/database/borrows"
	"github.com/devbook/devbook/internal/database/categories"
	"github.com/devbook/devbook/internal/database/users"
	"github.com/devbook/devbook/internal/entities"
	"github.com/devbook/devbook/internal/lending"
)

const (
	defaultDemoDatabasePath = "./demo/demo.db"
	demoPassword            = "devbook-demo"
)

type demoBook struct {
	Category string
	Book     entities.BookInput
}

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log := logrus.New()
	log.WithField("path", *dbPath).Info("generating demo database")

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Fatal("failed to remove existing demo database")
	}

	db, err := database.NewDatabase(config.Database{Driver: config.DatabaseDriverSQLite, Path: *dbPath}, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create database")
	}
	defer db.Close()

	ctx := context.Background()
	authCfg := config.Auth{JWTSecret: "demo", TokenTTL: time.Hour, BcryptCost: 10}
	userRepo := users.NewRepository(db.DB)
	authService := auth.NewService(userRepo, auth.NewTokenIssuer(authCfg.JWTSecret, authCfg.TokenTTL), authCfg)
	bookRepo := books.NewRepository(db.DB)
	catalogService := catalog.NewService(bookRepo, categories.NewRepository(db.DB))
	lendingService := lending.NewService(borrows.NewRepository(db.DB), bookRepo)

	if _, err := authService.CreateAdmin(ctx, "Demo Admin", "admin@devbook.local", demoPassword); err != nil {
		log.WithError(err).Fatal("failed to create admin")
	}

	students := make([]entities.PublicUser, 0, 2)
	for _, s := range []struct{ name, email string }{
		{"Ada Lovelace", "ada@devbook.local"},
		{"Alan Turing", "alan@devbook.local"},
	} {
		session, err := authService.Register(ctx, s.name, s.email, demoPassword)
		if err != nil {
			log.WithError(err).WithField("email", s.email).Fatal("failed to create student")
		}
		students = append(students, session.User)
	}

	categoryIDs := createCategories(ctx, catalogService, log)

	bookIDs := make([]uint, 0)
	for _, demo := range getDemoBooks() {
		input := demo.Book
		if id, ok := categoryIDs[demo.Category]; ok {
			input.CategoryID = &id
		}
		book, err := catalogService.CreateBook(ctx, input)
		if err != nil {
			log.WithError(err).WithField("title", input.Title).Warn("failed to save book")
			continue
		}
		bookIDs = append(bookIDs, book.ID)
		log.WithFields(logrus.Fields{"title": book.Title, "author": book.Author}).Info("saved book")
	}

	// One open loan per student so the dashboards have something to show.
	for i, student := range students {
		if i >= len(bookIDs) {
			break
		}
		if _, err := lendingService.CreateBorrow(ctx, bookIDs[i], student.ID); err != nil {
			log.WithError(err).Warn("failed to create borrow")
		}
	}

	log.WithField("password", demoPassword).Info("demo database generated successfully")
}

func createCategories(ctx context.Context, svc *catalog.Service, log logrus.FieldLogger) map[string]uint {
	inputs := []entities.CategoryInput{
		{Name: "Languages", Description: "Programming languages and their idioms"},
		{Name: "Systems", Description: "Operating systems, networks and distributed systems"},
		{Name: "Craft", Description: "Design, testing and working on software with others"},
	}

	ids := make(map[string]uint, len(inputs))
	for _, input := range inputs {
		category, err := svc.CreateCategory(ctx, input)
		if err != nil {
			log.WithError(err).WithField("name", input.Name).Warn("failed to create category")
			continue
		}
		ids[category.Name] = category.ID
	}
	return ids
}

func rating(n int) *int { return &n }

func getDemoBooks() []demoBook {
	return []demoBook{
		{"Languages", entities.BookInput{Title: "The Go Programming Language", Author: "Alan Donovan, Brian Kernighan", Status: entities.BookStatusRead, Rating: rating(5), Description: "A thorough tour of Go from the basics to concurrency and reflection."}},
		{"Languages", entities.BookInput{Title: "Structure and Interpretation of Computer Programs", Author: "Harold Abelson, Gerald Jay Sussman", Status: entities.BookStatusReading, Rating: rating(4), Description: "Abstraction, recursion and interpreters, taught through Scheme."}},
		{"Languages", entities.BookInput{Title: "The C Programming Language", Author: "Brian Kernighan, Dennis Ritchie", Status: entities.BookStatusRead, Rating: rating(5)}},
		{"Systems", entities.BookInput{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Status: entities.BookStatusReading, Rating: rating(5), Description: "Storage engines, replication, partitioning and stream processing."}},
		{"Systems", entities.BookInput{Title: "Operating Systems: Three Easy Pieces", Author: "Remzi Arpaci-Dusseau, Andrea Arpaci-Dusseau", Status: entities.BookStatusToRead}},
		{"Systems", entities.BookInput{Title: "Computer Networking: A Top-Down Approach", Author: "James Kurose, Keith Ross", Status: entities.BookStatusToRead}},
		{"Craft", entities.BookInput{Title: "The Pragmatic Programmer", Author: "Andrew Hunt, David Thomas", Status: entities.BookStatusRead, Rating: rating(4)}},
		{"Craft", entities.BookInput{Title: "A Philosophy of Software Design", Author: "John Ousterhout", Status: entities.BookStatusToRead, Description: "Deep modules, information hiding and the cost of complexity."}},
		{"", entities.BookInput{Title: "The Mythical Man-Month", Author: "Frederick P. Brooks Jr.", Status: entities.BookStatusRead, Rating: rating(3)}},
	}
}
