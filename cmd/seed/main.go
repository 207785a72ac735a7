// Command main runs the demo data seeder.
package main

import (
	"flag"
	"log"

	"auctions/internal/config"
	"auctions/internal/database"
	"auctions/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numAuctions := flag.Int("auctions", 60, "Number of auctions to create")
	maxBids := flag.Int("bids", 8, "Maximum bids per auction")
	maxComments := flag.Int("comments", 4, "Maximum comments per auction")
	closed := flag.Float64("closed", 0.2, "Share of auctions to close after bidding")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	log.Printf("Target: %d users, %d auctions, clean=%v", *numUsers, *numAuctions, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:          *numUsers,
		NumAuctions:       *numAuctions,
		MaxBidsPerAuction: *maxBids,
		MaxComments:       *maxComments,
		ClosedRatio:       *closed,
		ShouldClean:       *shouldClean,
		RandSeed:          *randSeed,
	})
	if _, err := s.Run(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
