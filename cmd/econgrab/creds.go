package econgrab

import (
	"github.com/mbjorn/econgrab/internal/auth"
	"github.com/spf13/cobra"
)

var CredsCmd = &cobra.Command{
	Use:   "creds",
	Short: "List available credential files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		files, err := auth.List(dir)
		if err != nil {
			return err
		}

		if len(files) == 0 {
			cmd.Printf("No credential files found in %s\n", dir)
			return nil
		}

		cmd.Println("Available credential files:")

		for _, file := range files {
			if file.Company != "" {
				cmd.Printf("  - %s (Company: %s)\n", file.Name, file.Company)
			} else {
				cmd.Printf("  - %s\n", file.Name)
			}
		}

		return nil
	},
}

func init() {
	CredsCmd.Flags().String("dir", auth.DefaultDir, "Directory to search for credential files")
}
