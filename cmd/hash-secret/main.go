package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/angelmondragon/settlement-archiver/pkg/security"
)

// hash-secret reads the admin secret from stdin and prints the Argon2id value
// to place in ARCHIVER_ADMIN_SECRET.
func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "hash-secret: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("hash-secret", flag.ContinueOnError)
	memory := fs.Uint("memory", uint(security.DefaultParams.Memory), "argon2id memory in KiB")
	iterations := fs.Uint("time", uint(security.DefaultParams.Time), "argon2id iterations")
	parallelism := fs.Uint("parallelism", uint(security.DefaultParams.Parallelism), "argon2id threads (1-255)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *parallelism == 0 || *parallelism > 255 {
		return fmt.Errorf("parallelism must be between 1 and 255")
	}

	secret, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read secret: %w", err)
	}
	secret = strings.TrimRight(secret, "\r\n")

	params := security.DefaultParams
	params.Memory = uint32(*memory)
	params.Time = uint32(*iterations)
	params.Parallelism = uint8(*parallelism)

	hash, err := security.HashSecret(secret, params)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
