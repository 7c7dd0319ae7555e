package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

// Prints a bcrypt hash for ADMIN_TOKEN_HASH. Without -token a random token
// is generated and printed once.
func main() {
	token := flag.String("token", "", "admin token to hash (random when empty)")
	flag.Parse()

	if *token == "" {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}
		*token = hex.EncodeToString(buf)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*token), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash token: %v", err)
	}

	fmt.Printf("✅ Admin token hashed successfully!\n")
	fmt.Printf("   Token: %s\n", *token)
	fmt.Printf("   ADMIN_TOKEN_HASH=%s\n", hashed)
}
