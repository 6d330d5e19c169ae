// Command hash-generator produces a bcrypt digest of an API key for the
// auth.api_key_hash setting. Without -key it generates a fresh random key.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// keyBytes is the amount of entropy in a generated key.
const keyBytes = 32

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hash-generator: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("hash-generator", flag.ContinueOnError)
	fs.SetOutput(out)
	key := fs.String("key", "", "API key to hash (a random key is generated when empty)")
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return err
	}

	generated := false
	if *key == "" {
		k, err := generateKey()
		if err != nil {
			return err
		}
		*key = k
		generated = true
	}

	hash, err := hashKey(*key, *cost)
	if err != nil {
		return err
	}

	if generated {
		fmt.Fprintf(out, "API key: %s\n", *key)
	}
	fmt.Fprintf(out, "Hash: %s\n", hash)
	return nil
}

func generateKey() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashKey(key string, cost int) (string, error) {
	if len(key) > 72 {
		return "", errors.New("key must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hash), nil
}
