package main

import (
	"context"
	"flag"
	"log"
	"time"

	"shop-assistant-be/internal/bootstrap"
	"shop-assistant-be/internal/config"
	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/model"
	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/internal/repository/unitofwork"
	"shop-assistant-be/internal/service"
	"shop-assistant-be/pkg/database"
	"shop-assistant-be/pkg/embedding"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func main() {
	index := flag.Bool("index", false, "embed seeded products after inserting them")
	flag.Parse()

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding product catalog...")

	var seeded []uuid.UUID
	for _, p := range demoCatalog() {
		var existing model.Product
		if err := db.Where("slug = ?", p.Slug).First(&existing).Error; err == nil {
			log.Printf("Product '%s' already exists, skipping...", p.Slug)
			seeded = append(seeded, existing.Id)
			continue
		}

		p.Id = uuid.New()
		if err := db.Create(&p).Error; err != nil {
			log.Printf("Error creating product '%s': %v", p.Slug, err)
			continue
		}
		log.Printf("Created product: %s (%s)", p.Name, p.Slug)
		seeded = append(seeded, p.Id)
	}

	if !*index {
		log.Println("Catalog seeding completed! Run with -index to embed the products.")
		return
	}

	provider, err := bootstrap.NewEmbeddingProvider(cfg, logger.NewZapLogger(cfg.App.LogFilePath, false))
	if err != nil {
		log.Fatal("Error: Failed to create embedding provider:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	products, err := uow.ProductRepository().FindByIds(ctx, seeded)
	if err != nil {
		log.Fatal("Error: Failed to load products:", err)
	}

	for _, p := range products {
		document := service.BuildProductDocument(p)
		values, err := provider.Embed(ctx, document, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("Error embedding '%s': %v", p.Slug, err)
			continue
		}
		if err := uow.ProductEmbeddingRepository().ReplaceForProduct(ctx, &entity.ProductEmbedding{
			ProductId:      p.Id,
			Document:       document,
			EmbeddingValue: values,
			CreatedAt:      time.Now(),
		}); err != nil {
			log.Printf("Error storing embedding for '%s': %v", p.Slug, err)
			continue
		}
		log.Printf("Indexed: %s (%d dims)", p.Slug, len(values))
	}

	log.Println("Catalog seeding and indexing completed!")
}

func demoCatalog() []model.Product {
	return []model.Product{
		{
			Name: "Trail Runner GTX", Price: 129.00, Category: "running shoes", Slug: "trail-runner-gtx", IsActive: true,
			Description: "Waterproof trail running shoe with an aggressive outsole for muddy terrain.",
			KeyPoints:   datatypes.JSONSlice[string]{"Gore-Tex membrane", "5 mm lugs", "310 g per shoe"},
		},
		{
			Name: "Road Glide 3", Price: 99.50, Category: "running shoes", Slug: "road-glide-3", IsActive: true,
			Description: "Cushioned daily trainer for road mileage.",
			KeyPoints:   datatypes.JSONSlice[string]{"Nitrogen-infused foam", "8 mm drop", "Reflective heel"},
		},
		{
			Name: "Summit 35 Backpack", Price: 149.00, Category: "backpacks", Slug: "summit-35-backpack", IsActive: true,
			Description: "35 litre hiking pack with a ventilated back panel and rain cover.",
			KeyPoints:   datatypes.JSONSlice[string]{"Adjustable torso length", "Hydration sleeve", "Integrated rain cover"},
		},
		{
			Name: "Featherlite Rain Jacket", Price: 89.00, Category: "jackets", Slug: "featherlite-rain-jacket", IsActive: true,
			Description: "Packable 2.5-layer shell for wet runs and hikes.",
			KeyPoints:   datatypes.JSONSlice[string]{"Packs into its own pocket", "Taped seams", "Pit zips"},
		},
		{
			Name: "Merino Crew Socks (3 pack)", Price: 24.90, Category: "socks", Slug: "merino-crew-socks-3", IsActive: true,
			Description: "Odor-resistant merino blend socks with cushioned soles.",
			KeyPoints:   datatypes.JSONSlice[string]{"60% merino wool", "Seamless toe", "Arch support"},
		},
	}
}
