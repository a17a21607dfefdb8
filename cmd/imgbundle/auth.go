package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"imgbundle/pkg/auth"
	"imgbundle/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored cookies",
	Long: `Manage the cookies imgbundle sends to pages and images behind a login.

A browser sends its cookies with every same-site request; imgbundle does the
same with the cookies stored here. A cookie stored for example.com is also
sent to its subdomains.

Cookies are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - IMGBUNDLE_COOKIE environment variable (applies to every host)

Never share your cookies or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login <host>",
	Short: "Store the cookie for a host",
	Long: `Store the Cookie header for a host in the system keychain or encrypted file.

To get the value:
1. Log into the site in your browser
2. Open Developer Tools (F12)
3. Go to Network, reload the page and pick the document request
4. Copy the value of the Cookie request header

The value is hidden while you type or paste it.`,
	Example: `  imgbundle auth login example.com
  imgbundle auth login https://images.example.com/gallery`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:     "logout <host>",
	Short:   "Remove the stored cookie for a host",
	Example: `  imgbundle auth logout example.com`,
	Args:    cobra.ExactArgs(1),
	RunE:    runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List hosts with stored cookies",
	Long:  `List every host with a stored cookie. Cookie values are masked.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	host, err := auth.NormalizeHost(args[0])
	if err != nil {
		ui.PrintError("Invalid host", err)
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	if existing, _ := manager.Retrieve(host); existing != nil {
		fmt.Printf("A cookie for '%s' is already stored. Replace it? (y/N): ", host)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Printf("Cookie header for %s: ", host)
	cookie, err := readPassword(reader)
	if err != nil {
		ui.PrintError("Failed to read cookie", err)
		return err
	}
	if strings.TrimSpace(cookie) == "" {
		ui.PrintError("Cookie value is required")
		return errors.New("empty cookie")
	}
	if !strings.Contains(cookie, "=") {
		ui.PrintWarning("That does not look like a Cookie header (expected name=value pairs); storing it anyway")
	}

	cred := &auth.Credential{Host: host, Cookie: cookie}
	if err := manager.Store(cred); err != nil {
		ui.PrintError("Failed to store cookie", err)
		return err
	}

	ui.PrintSuccess("Cookie saved for " + host)
	fmt.Printf("  %s %s\n", ui.Dim("•"), auth.Sanitize(cred).Cookie)
	fmt.Println("\nIt will be sent when scanning or downloading from this host:")
	fmt.Printf("  $ imgbundle https://%s/\n", host)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	if err := manager.Delete(args[0]); err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			ui.PrintWarning("No cookie stored for " + args[0])
			return nil
		}
		ui.PrintError("Failed to remove cookie", err)
		return err
	}
	ui.PrintSuccess("Cookie removed: " + args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	creds, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list cookies", err)
		return err
	}

	if len(creds) == 0 {
		ui.PrintInfo("No stored cookies", "Use 'imgbundle auth login <host>' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Cookies")
	fmt.Println()

	for i, cred := range creds {
		sanitized := auth.Sanitize(cred)
		fmt.Printf("%d. Host: %s\n", i+1, sanitized.Host)
		fmt.Printf("   Cookie: %s\n", sanitized.Cookie)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
	return nil
}

// readPassword reads a secret from stdin without echoing when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
