package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const adminBcryptCost = 12

// hashPasswordCmd prints the value for ADMIN_PASSWORD_HASH.
func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash for ADMIN_PASSWORD_HASH",
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if len(password) < 6 {
				return errors.New("password must have at least 6 characters")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), adminBcryptCost)
			if err != nil {
				return fmt.Errorf("ошибка хеширования пароля: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}
