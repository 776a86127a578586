package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ScottStevenWhite/photosync/internal/photos"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize access to the remote photo library",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := photos.Login(cmd.Context(), cfg.DataDir, func(authURL string) (string, error) {
			fmt.Printf("\nOpen this URL in your browser:\n\n  %s\n\n", authURL)
			fmt.Print("Paste the authorization code: ")
			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(code), nil
		})
		if err != nil {
			return err
		}
		fmt.Println("Login successful, token saved.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the saved authorization token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := photos.DeleteToken(cfg.DataDir); err != nil {
			return err
		}
		fmt.Println("Token deleted.")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(logoutCmd)
}
