// Command seed resets the design catalogue from a directory of artwork
// images and ensures the base garment products exist. Run it after schema
// changes or whenever the artwork set is refreshed.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/store"
)

const seedAuthor = "Fresh Style Community"

var extPattern = regexp.MustCompile(`\.[^/.]+$`)

var baseProducts = []models.Product{
	{
		ID:           "classic-tee",
		Name:         "Classic Tee",
		Description:  "Heavyweight cotton t-shirt, printed on demand.",
		Price:        29.99,
		BaseImageURL: "/product-images/base-tee.png",
		Category:     models.CategoryTShirt,
	},
	{
		ID:           "cozy-hoodie",
		Name:         "Cozy Hoodie",
		Description:  "Fleece-lined pullover hoodie, printed on demand.",
		Price:        49.99,
		BaseImageURL: "/product-images/base-hoodie.png",
		Category:     models.CategoryHoodie,
	},
}

func designNameFromFile(file string) string {
	name := extPattern.ReplaceAllString(file, "")
	name = strings.ReplaceAll(name, "_", " ")
	return regexp.MustCompile(`(?i)Whisk`).ReplaceAllString(name, "Design")
}

func main() {
	imagesDir := flag.String("images", "public/product-images", "directory of design images")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	if err := store.CreateTables(ctx, bunDB); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Schema creation failed: %v", err))
	}

	db := store.New(bunDB)

	for _, product := range baseProducts {
		existing, err := db.GetProductByID(ctx, product.ID)
		if err != nil {
			log.Fatal("SEED", fmt.Sprintf("Product lookup failed: %v", err))
		}
		if existing != nil {
			continue
		}
		product.CreatedAt = time.Now()
		if err := db.CreateProduct(ctx, product); err != nil {
			log.Fatal("SEED", fmt.Sprintf("Failed to insert product %s: %v", product.ID, err))
		}
		log.Info("SEED", fmt.Sprintf("Inserted product: %s", product.Name))
	}

	entries, err := os.ReadDir(*imagesDir)
	if err != nil {
		log.Fatal("SEED", fmt.Sprintf("Failed to read images directory %s: %v", *imagesDir, err))
	}

	// Full reset: the design catalogue mirrors the images directory.
	if _, err := bunDB.NewDelete().Model((*models.Design)(nil)).Where("1 = 1").Exec(ctx); err != nil {
		log.Fatal("SEED", fmt.Sprintf("Failed to clear designs: %v", err))
	}

	inserted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
			continue
		}

		d := models.Design{
			ID:        uuid.NewString(),
			Name:      designNameFromFile(entry.Name()),
			Author:    seedAuthor,
			ImageURL:  cfg.Admin.SeedImagePrefix + entry.Name(),
			IsAI:      true,
			CreatedAt: time.Now(),
		}
		if err := db.CreateDesign(ctx, d); err != nil {
			log.Fatal("SEED", fmt.Sprintf("Failed to insert design %s: %v", d.Name, err))
		}
		log.Info("SEED", fmt.Sprintf("Inserted design: %s", d.Name))
		inserted++
	}

	log.Info("SEED", fmt.Sprintf("Seeding complete: %d designs from %s", inserted, *imagesDir))
}
