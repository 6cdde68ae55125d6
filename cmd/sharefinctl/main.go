package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/client/api"
	"github.com/nkiryanov/sharefin/internal/client/cache"
	"github.com/nkiryanov/sharefin/internal/client/provider"
	"github.com/nkiryanov/sharefin/internal/client/session"
	"github.com/nkiryanov/sharefin/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Stdin, os.Stdout, os.Getenv, os.Getwd, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "sharefinctl: %s\n", describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer, getenv func(string) string, getwd func() (string, error), args []string) error {
	c := NewConfig()
	if err := c.LoadDotEnv(getwd); err != nil {
		return fmt.Errorf("can't load .env file. Err: %w", err)
	}
	c.LoadEnv(getenv)
	rest, err := c.ParseFlags(args)
	if err != nil {
		return err
	}

	if len(rest) == 0 {
		printUsage(out)
		return errors.New("command required")
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		printUsage(out)
		return fmt.Errorf("unknown command %q", rest[0])
	}

	l, err := logger.NewTextLogger(c.LogLevel)
	if err != nil {
		return err
	}

	statePath := c.StatePath
	if statePath == "" {
		if statePath, err = cache.DefaultPath(); err != nil {
			return err
		}
	}

	apiClient := api.New(c.APIAddr, nil)
	store := cache.New(statePath, l)
	prov := provider.New(apiClient, store, l)
	sess := session.New(session.Config{Provider: prov, Backend: apiClient, Logger: l})

	if err := sess.Init(ctx); err != nil {
		return err
	}
	defer sess.Dispose()

	if _, err := sess.WaitSettled(ctx); err != nil {
		return err
	}

	cl := &cli{
		api:      apiClient,
		cache:    store,
		provider: prov,
		session:  sess,
		in:       bufio.NewReader(in),
		out:      out,
	}
	return cmd.run(ctx, cl, rest[1:])
}

// Human readable error for the terminal
func describe(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return fmt.Sprintf("%v (run 'sharefinctl login <login>')", err)
	case errors.Is(err, api.ErrTooManyRequests):
		return "too many attempts, try again later"
	default:
		return err.Error()
	}
}
