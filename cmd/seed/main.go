package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/storeup/storeup-backend/config"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/app/service"
	"github.com/storeup/storeup-backend/internal/authz"
	"github.com/storeup/storeup-backend/internal/db"
)

func main() {
	demo := flag.Bool("demo", false, "create the store1, store2 and test demo stores")
	file := flag.String("file", "", "import a catalog workbook (.xlsx) exported from a store")
	owner := flag.Uint("owner", 0, "user id to own a store created by -file")
	flag.Parse()

	if !*demo && *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: seed -demo | -file <catalog.xlsx> [-owner <user id>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if *demo {
		result, err := seedDemo(db.GetDB())
		if err != nil {
			log.Fatal("Failed to seed demo stores:", err)
		}
		fmt.Printf("Demo data seeded: %d stores, %d categories, %d products created\n",
			result.Stores, result.Categories, result.Products)
	}

	if *file != "" {
		var ownerID *uint
		if *owner != 0 {
			id := *owner
			ownerID = &id
		}
		if err := importWorkbook(context.Background(), *file, ownerID); err != nil {
			log.Fatal("Failed to import workbook:", err)
		}
	}
}

func importWorkbook(ctx context.Context, path string, ownerID *uint) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	conn := db.GetDB()
	exporter := service.NewCatalogExportService(
		repository.NewStoreRepository(conn),
		repository.NewCategoryRepository(conn),
		repository.NewProductRepository(conn),
		authz.NewGuard(authz.Policy{}),
	)

	fmt.Printf("Reading XLSX file: %s\n", path)
	result, err := exporter.ImportWorkbook(ctx, f, ownerID)
	if err != nil {
		return err
	}

	action := "updated"
	if result.Created {
		action = "created"
	}
	fmt.Printf("Store %s %s (id %d): %d categories, %d products imported, %d rows skipped\n",
		result.Domain, action, result.StoreID, result.Categories, result.Products, result.Skipped)
	return nil
}
