package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "onboarding",
	Short: "Onboarding knowledge portal backend",
	Long: `onboarding - backend cho cổng onboarding: đăng nhập, chủ đề kiến thức,
tiến độ học của nhân viên và dashboard cho quản lý.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, hashPasswordCmd, cleanupCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
