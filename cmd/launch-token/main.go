package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/service"
	"golang.org/x/term"
)

func main() {
	var (
		tokenType  string
		userID     string
		activityID string
	)
	flag.StringVar(&tokenType, "type", string(service.TokenTypeLearner), "Token type (learner|author)")
	flag.StringVar(&userID, "user", "", "User ID carried in the token")
	flag.StringVar(&activityID, "activity", "", "Restrict the token to one activity (optional)")
	flag.Usage = printUsage
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	if flag.Arg(0) == "hash" {
		hashShellKey(cfg)
		return
	}

	if userID == "" {
		fmt.Println("Error: -user is required")
		os.Exit(1)
	}
	tt := service.TokenType(tokenType)
	if tt != service.TokenTypeLearner && tt != service.TokenTypeAuthor {
		fmt.Printf("Error: unknown token type %q\n", tokenType)
		os.Exit(1)
	}

	// Ask for the signing secret when the environment does not provide one.
	if os.Getenv("JWT_SECRET") == "" {
		secret, err := readSecret("Enter JWT secret: ")
		if err != nil {
			fmt.Println("\nError reading secret")
			os.Exit(1)
		}
		cfg.JWTSecret = secret
	}

	token, expiresAt, err := service.NewAuthService(cfg).GenerateToken(tt, userID, activityID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
}

// hashShellKey prints the bcrypt hash to place in SHELL_KEY_HASH.
func hashShellKey(cfg *config.Config) {
	key, err := readSecret("Enter shell key: ")
	if err != nil {
		fmt.Println("\nError reading shell key")
		os.Exit(1)
	}
	if len(key) < 12 {
		fmt.Println("Error: shell key must be at least 12 characters")
		os.Exit(1)
	}

	hash, err := service.NewAuthService(cfg).HashShellKey(key)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("SHELL_KEY_HASH=%s\n", hash)
}

func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func printUsage() {
	fmt.Println("Usage: launch-token [flags] [hash]")
	fmt.Println()
	fmt.Println("Mints a launch token, or with 'hash' prints a bcrypt hash of a shell key.")
	fmt.Println()
	flag.PrintDefaults()
}
