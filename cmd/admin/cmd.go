package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/fundalink/fundalink-api/internal/models"
	"github.com/fundalink/fundalink-api/internal/service"
)

var readPasswordFunc = term.ReadPassword // mockable

var stdout io.Writer = os.Stdout

var errHelp = errors.New("help provided")

type userAdmin interface {
	CreateSuperAdmin(ctx context.Context, req service.CreateUserRequest) (*models.User, error)
	ResetPassword(ctx context.Context, email, password string) error
}

type commandLine struct {
	users   userAdmin
	migrate func(ctx context.Context) error
	logger  *zap.Logger
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "create-superadmin":
		return cli.createSuperAdmin(ctx, args[2:])
	case "reset-password":
		return cli.resetPassword(ctx, args[2:])
	case "migrate":
		if err := cli.migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(stdout, "Migraciones aplicadas")
		return nil
	case "help", "-h", "--help":
		cli.printUsage()
		return errHelp
	default:
		cli.printUsage()
		return fmt.Errorf("unknown command %q", args[1])
	}
}

func (cli *commandLine) createSuperAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-superadmin", flag.ContinueOnError)
	fs.SetOutput(stdout)
	email := fs.String("email", "", "superadmin email")
	firstName := fs.String("nombre", "", "first name")
	lastName := fs.String("apellido", "", "last name")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	if *email == "" || *firstName == "" || *lastName == "" {
		fs.Usage()
		return errors.New("-email, -nombre and -apellido are required")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	user, err := cli.users.CreateSuperAdmin(ctx, service.CreateUserRequest{
		FirstName: *firstName,
		LastName:  *lastName,
		Email:     *email,
		Password:  password,
	})
	if err != nil {
		return fmt.Errorf("create superadmin: %w", err)
	}
	cli.logger.Info("superadmin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	fmt.Fprintf(stdout, "Superadmin %s creado (%s)\n", user.Email, user.ID)
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	fs.SetOutput(stdout)
	email := fs.String("email", "", "staff email")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	if *email == "" {
		fs.Usage()
		return errors.New("-email is required")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}
	if err := cli.users.ResetPassword(ctx, *email, password); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	cli.logger.Info("staff password reset", zap.String("email", *email))
	fmt.Fprintf(stdout, "Contraseña actualizada para %s\n", *email)
	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(stdout, "Contraseña: ")
	first, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(stdout)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(stdout, "Confirmar contraseña: ")
	second, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(stdout)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	password := strings.TrimSpace(string(first))
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(stdout, `Usage: admin <command> [flags]

Commands:
  create-superadmin -email <email> -nombre <nombre> -apellido <apellido>
                    Create a superadmin account. Prompts for the password.
  reset-password    -email <email>
                    Reset a staff password. Prompts for the new password.
  migrate           Apply pending database migrations.`)
}
