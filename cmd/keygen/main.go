package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/tjfontaine/mindspark/internal/adapters/auth/apikey"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Println("Usage: go run cmd/keygen/main.go <uid> [token]")
		fmt.Println("Generates a bearer token (unless one is given) and the SHA-256 hash to put in config.yaml")
		os.Exit(1)
	}

	uid := os.Args[1]
	token := ""
	if len(os.Args) == 3 {
		token = os.Args[2]
	} else {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			fmt.Fprintln(os.Stderr, "generate token:", err)
			os.Exit(1)
		}
		token = "ms_" + hex.EncodeToString(buf)
	}

	fmt.Printf("Token: %s\n", token)
	fmt.Printf("SHA-256 Hash: %s\n", apikey.HashToken(token))
	fmt.Println("\nAdd this to your config.yaml:")
	fmt.Printf("  identities:\n")
	fmt.Printf("    - uid: %q\n", uid)
	fmt.Printf("      token_hash: %q\n", apikey.HashToken(token))
}
