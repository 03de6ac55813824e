package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"userhub/internal/auth"
	"userhub/internal/config"
	"userhub/internal/db"
	apperrors "userhub/internal/errors"
	"userhub/internal/model"
	"userhub/internal/repository"
	"userhub/internal/service"
)

// SeedUserData represents one entry of the seed fixture.
type SeedUserData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phones   []struct {
		Number      string `json:"number"`
		CityCode    string `json:"citycode"`
		CountryCode string `json:"countrycode"`
	} `json:"phones"`
}

var defaultUsers = []SeedUserData{
	{Name: "Ada Lovelace", Email: "ada@example.com", Password: "Analytical.1842"},
	{Name: "Grace Hopper", Email: "grace@example.com", Password: "Cobol.Rules.1959"},
	{Name: "Alan Turing", Email: "alan@example.com", Password: "Enigma.1936!"},
}

func main() {
	var fixturePath string
	flag.StringVar(&fixturePath, "file", "", "path to a JSON fixture of users (defaults to a built-in demo set)")
	flag.Parse()

	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Phone{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	users := defaultUsers
	if fixturePath != "" {
		users, err = loadFixture(fixturePath)
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
		log.Printf("Loaded %d users from %s", len(users), fixturePath)
	}

	// Seed through the real create workflow so seeded users get hashed
	// passwords and valid tokens, exactly like API registrations.
	userRepo := repository.NewUserRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	userService := service.NewUserService(userRepo, jwtService)

	ctx := context.Background()
	created, skipped := 0, 0
	for _, u := range users {
		input := service.UserInput{
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
		}
		for _, p := range u.Phones {
			input.Phones = append(input.Phones, service.PhoneInput{
				Number:      p.Number,
				CityCode:    p.CityCode,
				CountryCode: p.CountryCode,
			})
		}

		if _, err := userService.Create(ctx, input); err != nil {
			if errors.Is(err, apperrors.ErrEmailTaken) {
				log.Printf("Skipping %s: already registered", u.Email)
				skipped++
				continue
			}
			log.Fatalf("Failed to seed user %s: %v", u.Email, err)
		}
		created++
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - New users created: %d", created)
	log.Printf("  - Already present:   %d", skipped)
}

// loadFixture reads and parses a JSON array of seed users.
func loadFixture(path string) ([]SeedUserData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var users []SeedUserData
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return users, nil
}
