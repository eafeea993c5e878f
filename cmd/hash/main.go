// Package main is a utility for generating bcrypt hashes of passwords.
// The directory stores only bcrypt hashes of passwords, never the raw
// values, so this tool is used when manually seeding user records in the
// database without running the full server. Pass the password as the first
// argument and insert the printed hash into the users table.
package main

import (
	"fmt"
	"os"

	"github.com/descubre-boyaca/descubre-backend/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password>\n", os.Args[0])
		os.Exit(1)
	}
	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		panic(err)
	}
	fmt.Println(hash)
}
