// Command seed fills the database with demo topics, users, rooms and messages.
package main

import (
	"flag"
	"log"

	"studybud/internal/bootstrap"
	"studybud/internal/config"
	"studybud/internal/database"
	"studybud/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of random users to create")
	numRooms := flag.Int("rooms", 15, "Number of random rooms to create")
	perRoom := flag.Int("messages", 8, "Messages to post in each random room")
	maxDays := flag.Int("days", 30, "Spread timestamps over this many past days")
	clean := flag.Bool("clean", false, "Delete all existing data first")
	fast := flag.Bool("fast", false, "Hash the demo password at minimum bcrypt cost")
	fixture := flag.String("fixture", "", "YAML fixture applied before random data")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	err = bootstrap.Seed(db, bootstrap.Options{
		SeedBuiltIns: true,
		Demo: &seed.Options{
			Users:           *numUsers,
			Rooms:           *numRooms,
			MessagesPerRoom: *perRoom,
			MaxDays:         *maxDays,
			Clean:           *clean,
			SkipBcrypt:      *fast,
			Fixture:         *fixture,
			Seed:            *randSeed,
		},
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All test users have the password: %s", seed.DemoPassword)
}
