package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(db)
	seedProducts(db)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
		log.Println("SEED_ADMIN_PASSWORD not set, using default password")
	}

	users := []struct {
		Username    string
		DisplayName string
	}{
		{"admin", "Shop Admin"},
		{"counter", "Counter Staff"},
	}

	fmt.Println("Seeding Users...")
	for _, u := range users {
		hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		_, err = db.Exec(`
			INSERT INTO users (username, display_name, password_hash)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING;
		`, u.Username, u.DisplayName, hash)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Username, err)
		}
	}
}

func seedProducts(db *sql.DB) {
	products := []struct {
		Name       string
		Quantity   int
		Rate       float64
		Commission *float64
	}{
		{"Urea 45kg", 120, 500, nil},
		{"DAP 50kg", 80, 1350, nil},
		{"MOP 50kg", 60, 1700, commission(2.5)},
		{"NPK 10-26-26 50kg", 75, 1470, nil},
		{"SSP 50kg", 90, 450, commission(4)},
		{"Zinc Sulphate 10kg", 40, 620, nil},
		{"Gypsum 25kg", 50, 180, commission(2)},
		{"Neem Coated Urea 45kg", 100, 530, nil},
	}

	fmt.Println("Seeding Products...")
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (name, quantity, rate, commission_percent)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING;
		`, p.Name, p.Quantity, p.Rate, p.Commission)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
		}
	}
}

func commission(pct float64) *float64 {
	return &pct
}
