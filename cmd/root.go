package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wisnus",
	Short: "Chat client for the Wisatawan Nusantara survey",
	Long:  "Wisnus — terminal chat client for the Survei Wisatawan Nusantara platform, with a built-in question-and-answer mode about the survey.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides wisnus.yaml in the working directory)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}
