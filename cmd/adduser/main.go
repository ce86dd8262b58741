package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"spendwise/internal/config"
	"spendwise/internal/database"
	"spendwise/internal/logger"
	"spendwise/internal/services"
)

const minPasswordLength = 8

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, openUserService)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openUserService connects to the configured database and brings its schema up to date.
func openUserService() (services.UserServicer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	manager, err := database.NewManager(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if err := manager.RunMigrations(); err != nil {
		_ = manager.Close()
		return nil, nil, err
	}
	return services.NewUserService(manager.DB()), func() { _ = manager.Close() }, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer,
	open func() (services.UserServicer, func(), error)) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-name <name>] [-password <password>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	userService, closeFn, err := open()
	if err != nil {
		return err
	}
	defer closeFn()

	user, err := userService.CreateUser(context.Background(), *email, password, strings.TrimSpace(*name))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
