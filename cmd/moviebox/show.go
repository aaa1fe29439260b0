package main

import (
	"github.com/spf13/cobra"

	"github.com/pevans/moviescraper/movie"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Prints the movies stored in a previous output file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := movie.ReadFile(args[0])
		if err != nil {
			return err
		}
		printMovies(cmd.OutOrStdout(), records)
		return nil
	},
}
