package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "clubhouse",
	Short: "Clubhouse is the boules club management backend",
	Long: `The backend for a club management web app: member accounts, encrypted
session cookies, and CSRF protection for the browser frontend.
Complete documentation is available at https://github.com/boulodrome/clubhouse`,
	Version: Version,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
