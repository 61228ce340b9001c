package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/spreadsheet"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// Imports a product workbook (see internal/spreadsheet) into the catalog.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: go run ./cmd/seed <products.xlsx> [-y]")
		os.Exit(2)
	}

	filePath := os.Args[1]
	skipConfirm := len(os.Args) > 2 && os.Args[2] == "-y"

	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	inputs, err := readWorkbook(filePath)
	if err != nil {
		logger.Fatal("Failed to read XLSX", err, map[string]interface{}{
			"file": filePath,
		})
	}

	fmt.Printf("Total products to import: %d\n", len(inputs))
	if len(inputs) == 0 {
		return
	}

	if !skipConfirm && !confirm("Do you want to proceed with the import? (yes/no): ") {
		fmt.Println("Import cancelled.")
		return
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	productService := service.NewProductService(db.GetDB(), repository.NewProductRepository(db.GetDB()), nil)

	products, err := productService.ImportProducts(context.Background(), inputs)
	if err != nil {
		logger.Fatal("Failed to import products", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", len(products))
}

func readWorkbook(filePath string) ([]service.CreateProductInput, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	return spreadsheet.ReadProducts(f)
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}
