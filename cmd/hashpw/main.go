package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/example/storefront/internal/auth"
)

// hashpw prints the bcrypt hash for ADMIN_PASSWORD_HASH. The password is
// read from the first argument or, when absent, from stdin.
func main() {
	password := ""
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "read password: %v\n", err)
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
