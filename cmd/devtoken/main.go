package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"bus_tracker/internal/middleware"
)

func main() {
	userID := flag.String("user-id", "", "sub claim (user or driver id)")
	orgID := flag.String("org-id", "", "organizationId claim")
	role := flag.String("role", middleware.RoleRider, "role claim: driver, user or admin")
	secret := flag.String("secret", "", "HS256 secret (defaults to JWT_SECRET)")
	expiresIn := flag.Duration("expires-in", time.Hour, "token lifetime (duration, e.g. 30m, 2h)")

	flag.Parse()

	_ = godotenv.Load()
	key := strings.TrimSpace(*secret)
	if key == "" {
		key = os.Getenv("JWT_SECRET")
	}
	if key == "" {
		fail(fmt.Errorf("no secret: pass -secret or set JWT_SECRET"))
	}

	uid, err := uuid.Parse(strings.TrimSpace(*userID))
	if err != nil {
		fail(fmt.Errorf("invalid -user-id: %w", err))
	}
	oid, err := uuid.Parse(strings.TrimSpace(*orgID))
	if err != nil {
		fail(fmt.Errorf("invalid -org-id: %w", err))
	}

	token, err := middleware.NewJWTAuth(key).GenerateToken(uid, oid, strings.TrimSpace(*role), *expiresIn)
	if err != nil {
		fail(err)
	}

	fmt.Println(token)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
