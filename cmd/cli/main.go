package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host      string
	token     string
	requester string
	dryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "courtside-cli",
	Short: "A CLI to interact with the courtside server",
	Long: `A command-line interface for making requests to the various endpoints
of the courtside application. Guest commands act as --as; host commands
need --token.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("HOST_TOKEN"), "Host bearer token")
	rootCmd.PersistentFlags().StringVar(&requester, "as", "", "Player name to send guest requests as")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Keep announcements off Slack")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
