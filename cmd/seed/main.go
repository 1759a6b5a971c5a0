package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/profile-hub/config"
)

type seedProfile struct {
	fullName, email, phone, bio, location string
}

var demoProfiles = []seedProfile{
	{"Ann Lee", "ann@example.com", "+14155550101", "Product designer who collects fountain pens.", "San Francisco"},
	{"Rui Tavares", "rui@example.com", "+351915550102", "Backend engineer, mostly Postgres.", "Lisbon"},
	{"Mina Okafor", "mina@example.com", "", "Writes about maps and transit systems.", "Lagos"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, p := range demoProfiles {
		var id string
		err := db.QueryRow(`
			INSERT INTO user_profiles (full_name, email, phone_number, bio, location)
			VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
			ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
			RETURNING id
		`, p.fullName, p.email, p.phone, p.bio, p.location).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed profile %s: %v", p.email, err)
		}
		fmt.Printf("seeded profile: id=%s email=%s\n", id, p.email)
	}
}
