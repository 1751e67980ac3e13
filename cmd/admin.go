package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnkhanh/onboarding-backend/config"
	"github.com/vnkhanh/onboarding-backend/services"
	"github.com/vnkhanh/onboarding-backend/utils"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status|version]",
	Short:     "Chạy migration database",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		command := "up"
		if len(args) == 1 {
			command = args[0]
		}
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.DBAutoMigrate = false
		db, err := config.OpenDB(cfg, logger)
		if err != nil {
			return err
		}
		return config.RunMigrations(cmd.Context(), db, cfg.DBDriver, command)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Tạo dữ liệu mẫu: profile, tài khoản, chủ đề",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := config.OpenDB(cfg, logger)
		if err != nil {
			return err
		}
		res, err := services.Seed(cmd.Context(), db, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "profiles: %d, accounts: %d, topics: %d\n", res.Profiles, res.Accounts, res.Topics)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "In bcrypt hash của mật khẩu (đọc stdin nếu không truyền tham số)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := ""
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("không đọc được mật khẩu từ stdin")
			}
			password = strings.TrimRight(line, "\r\n")
		}
		hashed, err := utils.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hashed)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Xoá session và token đặt lại mật khẩu đã hết hạn",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := config.OpenDB(cfg, logger)
		if err != nil {
			return err
		}
		res, err := utils.CleanupExpired(cmd.Context(), db, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sessions: %d, password resets: %d\n", res.Sessions, res.PasswordResets)
		return nil
	},
}
