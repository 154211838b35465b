package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"eduops/internal/account"
	"eduops/internal/instructor"
	"eduops/internal/program"
	"eduops/pkg/config"
	"eduops/pkg/db"
)

// Seeds a dev database with an admin login, a couple of instructors, and a
// program carrying a settlement rule, so the API is usable right after
// migrate.
func main() {
	var (
		adminEmail    = flag.String("admin-email", "admin@example.com", "admin login email")
		adminPassword = flag.String("admin-password", "", "admin login password (required)")
		adminName     = flag.String("admin-name", "Dev Admin", "admin display name")
	)
	flag.Parse()

	if *adminPassword == "" {
		fmt.Fprintln(os.Stderr, "missing -admin-password")
		os.Exit(2)
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open failed: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*adminPassword), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	accounts := account.NewRepository(pool)
	u, err := accounts.Upsert(ctx, *adminEmail, string(hash), *adminName, "admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("admin: %s (%s)\n", u.Email, u.ID)

	instructors := instructor.NewRepository(pool)
	for _, row := range [][4]string{
		{"Kim Instructor", "kim@example.com", "010-0000-0001", "Seoul"},
		{"Lee Instructor", "lee@example.com", "010-0000-0002", "Busan"},
	} {
		ins, err := instructors.Insert(ctx, row[0], row[1], row[2], row[3])
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed instructor: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("instructor: %s (%s)\n", ins.Name, ins.ID)
	}

	programs := program.NewRepository(pool)
	p, err := programs.Insert(ctx, "Coding Camp Spring", "Han River Middle School", "City Education Office", "2026-03-02", "2026-07-17")
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed program: %v\n", err)
		os.Exit(1)
	}

	rule := map[string]any{
		"version":       1,
		"instructorFee": map[string]any{"defaultAmount": "150000"},
		"transportation": map[string]any{
			"enabled":             true,
			"mode":                "distance",
			"distanceThresholdKm": 30,
			"ratePerKm":           "100",
		},
		"accommodation": map[string]any{
			"enabled":   true,
			"mode":      "actual",
			"maxAmount": "100000",
		},
	}
	raw, _ := json.Marshal(rule)
	if _, err := programs.SetSettlementRule(ctx, p.ID, raw); err != nil {
		fmt.Fprintf(os.Stderr, "seed settlement rule: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("program: %s (%s)\n", p.Name, p.ID)
}
