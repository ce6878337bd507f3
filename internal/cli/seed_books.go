package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrlokans/lexora/internal/catalog"
	"github.com/mrlokans/lexora/internal/config"
	"github.com/mrlokans/lexora/internal/database"
)

type SeedBooksCommand struct {
	FilePath     string
	DatabasePath string
}

func NewSeedBooksCommand() *SeedBooksCommand {
	return &SeedBooksCommand{}
}

func (cmd *SeedBooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed-books", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a JSON file with an array of books (required)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (defaults to DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed-books [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Load books into the catalog from a JSON file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed-books -file ./books.json\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		fs.Usage()
		return fmt.Errorf("file is required")
	}

	return nil
}

func (cmd *SeedBooksCommand) Run() error {
	payload, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.FilePath, err)
	}

	var inputs []catalog.NewBookInput
	if err := json.Unmarshal(payload, &inputs); err != nil {
		return fmt.Errorf("failed to parse %s: %w", cmd.FilePath, err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no books found in %s", cmd.FilePath)
	}

	cfg := config.NewConfig()
	dbPath := cmd.DatabasePath
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}

	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	service := catalog.NewService(db)
	added := 0
	for _, input := range inputs {
		if _, err := service.AddBook(input); err != nil {
			log.Printf("Skipping '%s': %v", input.Title, err)
			continue
		}
		added++
	}

	fmt.Printf("Seeded %d of %d book(s)\n", added, len(inputs))
	return nil
}
