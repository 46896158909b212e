package main

import (
	"context"
	"log"

	"github.com/contacthub/contacthub/internal/config"
	"github.com/contacthub/contacthub/internal/contact"
	"github.com/contacthub/contacthub/internal/contact/repository"
	"github.com/contacthub/contacthub/internal/contact/service"
	"github.com/contacthub/contacthub/internal/database"
)

// Seeds an empty contacts collection with a few sample entries. Safe to run
// repeatedly: it does nothing when the collection already has live contacts.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.MongoDB.URI == "" {
		log.Fatal("MONGODB_URI is required for seeding")
	}

	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, cfg.MongoDB)
	if err != nil {
		log.Fatalf("connect mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	svc := service.NewService(repository.NewMongoStore(client.Database(cfg.MongoDB.Database)))

	existing, err := svc.List(ctx, contact.LatestRevision())
	if err != nil {
		log.Fatalf("list contacts: %v", err)
	}
	if len(existing) > 0 {
		log.Printf("collection %s already has %d contacts, nothing to do", cfg.MongoDB.Database, len(existing))
		return
	}

	samples := []contact.Contact{
		{Name: "Ada Lovelace", Email: "ada@example.org", Phone: "555-0100"},
		{Name: "Grace Hopper", Email: "grace@example.org", Phone: "555-0101"},
		{Name: "Edsger Dijkstra", Email: "edsger@example.org", Address: "Nuenen"},
	}
	for _, c := range samples {
		key, err := svc.Insert(ctx, c)
		if err != nil {
			log.Fatalf("insert %s: %v", c.Name, err)
		}
		log.Printf("inserted %s as key %d", c.Name, key)
	}
}
