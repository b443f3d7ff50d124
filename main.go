package main

import (
	"context"
	"log"
	"os"

	"giftlist/internal/config"
	"giftlist/internal/services"
	"giftlist/pkg/rabbitmq"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

func main() {
	// --- Configuration ---
	cfg := config.Load(viper.New())

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if cfg.SeedExampleProducts {
		if err := seedProducts(context.Background(), app.Catalog); err != nil {
			log.Printf("Error seeding products: %v", err)
		}
	}

	// --- RabbitMQ consumer ---
	if err := app.StartEventLog(); err != nil {
		log.Printf("Failed to start RabbitMQ consumer: %v", err)
	}

	// --- HTTP server ---
	log.Printf("Starting server on port %s", cfg.AppPort)
	go func() {
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"giftlist": func(ctx context.Context) error {
				log.Println("Shutting down server...")
				return app.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Server stopped with code %d", exitCode)
	os.Exit(exitCode)
}

func logPurchaseEvent(msg amqp.Delivery) error {
	event, err := rabbitmq.DecodePurchaseEvent(msg)
	if err != nil {
		return err
	}
	if event.ProductID == nil {
		log.Printf("Gift %d purchased (no product) at %s", event.GiftID, event.PurchasedAt)
		return nil
	}
	log.Printf("Gift %d purchased (product %d) at %s", event.GiftID, *event.ProductID, event.PurchasedAt)
	return nil
}

type exampleProduct struct {
	name     string
	brand    string
	price    int64
	quantity int
}

// Prices are in pence.
var exampleProducts = []exampleProduct{
	{"Tea pot", "Le Creuset", 4750, 5},
	{"Cast Iron Oval Casserole", "Le Creuset", 21000, 2},
	{"Egg Cups", "Denby", 1800, 10},
	{"Toaster", "Dualit", 17900, 3},
	{"Usha Mango Wood Lamp Base", "Habitat", 4500, 4},
}

// seedProducts fills an empty catalog with example products.
func seedProducts(ctx context.Context, catalog *services.CatalogService) error {
	count, err := catalog.CountProducts(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, p := range exampleProducts {
		id, err := catalog.AddProduct(ctx, p.name, p.brand, p.price, p.quantity)
		if err != nil {
			return err
		}
		log.Printf("Seeded product: %s (ID: %d)", p.name, id)
	}
	return nil
}
