// Command hashpw prints a bcrypt hash for ADMIN_PASSWORD_HASH.
//
//	echo -n 'secret' | go run ./cmd/hashpw
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var cost = flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")

func main() {
	flag.Parse()

	password := strings.Join(flag.Args(), " ")
	if password == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fatalf("read password from stdin: %v", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		fatalf("password is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), *cost)
	if err != nil {
		fatalf("hash: %v", err)
	}
	fmt.Println(string(hash))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
	os.Exit(1)
}
