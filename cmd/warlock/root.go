package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "warlock",
	Short:         "Course enrollment automation and schedule change tracker",
	SilenceUsage:  true,
	SilenceErrors: false,
}
