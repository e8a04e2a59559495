package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/Extra-Chill/astra-web/internal/config"
	"github.com/Extra-Chill/astra-web/internal/files"
	"github.com/Extra-Chill/astra-web/internal/settings"
)

func newRenderCmd() *cobra.Command {
	var (
		pageName string
		body     string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print a page to stdout",
		Long: `Render prints one complete page using the configured layout.

  --page files    the file listing for files.dir
  --page upload   the configuration form with the stored settings
  --page blank    the layout around --body (or stdin when --body is "-")`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath(cmd))
			if err != nil {
				return err
			}

			content, err := pageBody(cfg, pageName, body, cmd.InOrStdin())
			if err != nil {
				return err
			}

			out, err := cfg.Layout().Render(content)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVar(&pageName, "page", "blank", "Page to render: files, upload or blank")
	cmd.Flags().StringVar(&body, "body", "", `Body markup for --page blank ("-" reads stdin)`)
	return cmd
}

func pageBody(cfg *config.Config, pageName, body string, stdin io.Reader) (string, error) {
	switch pageName {
	case "files":
		entries, err := files.List(cfg.Files.Dir)
		if err != nil {
			return "", err
		}
		return files.Summary(entries) + files.Table(entries), nil
	case "upload":
		store, err := settings.Open(cfg.Settings.Path)
		if err != nil {
			return "", err
		}
		return settings.Form(store.Get(), settings.Notice{}), nil
	case "blank":
		if body != "-" {
			return body, nil
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read body: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown page %q (want files, upload or blank)", pageName)
	}
}

func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for server.admin_password_hash",
		Long:  "Hashes the password given as argument, or the first line of stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write an example config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(config.Example())
				return err
			}
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("%s already exists", output)
			}
			if err := os.WriteFile(output, config.Example(), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
