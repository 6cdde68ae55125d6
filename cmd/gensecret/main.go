package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

const defaultSecretKeyBytesLen = 32

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	n := fs.IntP("bytes", "n", defaultSecretKeyBytesLen, "Number of random bytes")
	asEnv := fs.Bool("env", false, "Print as SECRET_KEY line for '.env' file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n < 16 {
		return fmt.Errorf("at least 16 bytes required, got %d", *n)
	}

	b := make([]byte, *n)
	if _, err := rand.Read(b); err != nil {
		return err
	}

	key := hex.EncodeToString(b)
	if *asEnv {
		key = "SECRET_KEY=" + key
	}
	_, err := fmt.Fprintln(out, key)
	return err
}
