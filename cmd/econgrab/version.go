package econgrab

import "github.com/spf13/cobra"

func NewVersionCommand(buildShortSHA string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the econgrab version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s\n", buildShortSHA)
		},
	}
}
