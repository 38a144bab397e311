package main

import (
	"fmt"
	"os"

	"github.com/openmarket/market-server/internal/util"
)

const bcryptCost = 12

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run ./cmd/hashpassword <password>\n")
		os.Exit(1)
	}

	hash, err := util.HashPassword(os.Args[1], bcryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ADMIN_PASSWORD_HASH=" + hash)
}
