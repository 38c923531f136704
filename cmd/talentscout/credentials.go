package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"talentscout/pkg/config"
)

// passwordEnv lets the secrets file be unlocked without a prompt.
const passwordEnv = "TALENTSCOUT_PASSWORD"

//nolint:gochecknoglobals // prompt order for the credential wizard
var credentialNames = []string{config.EnvOpenAIAPIKey, config.EnvAnthropicAPIKey, config.EnvGoogleAPIKey}

// handleSecretsDecryption unlocks .talentscout/secrets.json.enc when present.
func handleSecretsDecryption(projectDir string) error {
	if !config.SecretsFileExists(projectDir) {
		return nil
	}

	password := os.Getenv(passwordEnv)
	if password == "" {
		fmt.Print("🔐 Enter the project password to unlock stored credentials: ")
		raw, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
		clear(raw)
	}

	secrets, err := config.DecryptSecretsFile(projectDir, password)
	if err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	config.SetDecryptedSecrets(secrets)
	config.SetProjectPassword(password)
	config.LogInfo("🔓 Loaded %d stored credentials", len(secrets))
	return nil
}

// handleCredentialStorage asks for a password and the provider keys, then writes the
// encrypted secrets file.
func handleCredentialStorage(projectDir string) error {
	fmt.Println()
	fmt.Println("🔐 Credential Storage")
	fmt.Println()
	fmt.Println("talentscout reads API keys from environment variables by default. Keys entered")
	fmt.Println("here are encrypted with a password and stored in this project instead.")

	password, err := promptForPassword()
	if err != nil {
		return fmt.Errorf("failed to get password: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	secrets := make(map[string]string)
	for _, name := range credentialNames {
		fmt.Printf("Enter %s (press Enter to skip): ", name)
		if !scanner.Scan() {
			break
		}
		if value := strings.TrimSpace(scanner.Text()); value != "" {
			secrets[name] = value
		}
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no credentials entered")
	}

	if err := config.EncryptSecretsFile(projectDir, password, secrets); err != nil {
		return fmt.Errorf("failed to encrypt secrets: %w", err)
	}
	fmt.Printf("✅ Credentials saved to %s/secrets.json.enc (file permissions: 0600)\n", config.ProjectConfigDir)
	fmt.Printf("💡 Set %s to start without a password prompt.\n", passwordEnv)
	return nil
}

// promptForPassword prompts for a password with confirmation.
func promptForPassword() (string, error) {
	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Println()
		fmt.Print("Enter a password for this project: ")
		password1, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		password2, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}

		match := bytes.Equal(password1, password2) && len(password1) > 0
		password := string(password1)
		clear(password1)
		clear(password2)

		if match {
			return password, nil
		}
		if attempt < maxAttempts {
			fmt.Println("❌ Passwords are empty or do not match. Please try again.")
		}
	}
	return "", fmt.Errorf("passwords do not match after %d attempts", maxAttempts)
}
