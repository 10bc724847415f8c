// Strongroom - Content-Addressed Backup and Restore Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tomtom215/strongroom/internal/backupinfo"
	"github.com/tomtom215/strongroom/internal/secrets"
)

var credsCmd = &cobra.Command{
	Use:   "creds",
	Short: "Manage storage definitions and their credentials",
}

var credsCreateCmd = &cobra.Command{
	Use:   "create-storage-def <dest>",
	Short: "Create a new storage definition and its encryption key",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsCreate,
}

var credsExportCmd = &cobra.Command{
	Use:   "export <dest>",
	Short: "Export a storage definition's credential bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsExport,
}

var credsImportCmd = &cobra.Command{
	Use:   "import <dest>",
	Short: "Import a previously exported credential bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsImport,
}

func init() {
	credsCreateCmd.Flags().String("provider", "filesystem", "Provider kind (filesystem, object-storage)")
	credsCreateCmd.Flags().String("interface", "native", "Interface kind (native, generic)")
	credsCreateCmd.Flags().String("container", "objects", "Container/bucket name")
	credsCreateCmd.Flags().String("region", "", "Provider region (object-storage only)")
	credsCreateCmd.Flags().String("endpoint", "", "Provider endpoint override, for S3-compatible stores")
	credsCreateCmd.Flags().String("project-id", "", "Provider project id, when required")
	credsCreateCmd.Flags().String("access-key", "", "Provider access key (object-storage only)")
	credsCreateCmd.Flags().String("secret-key", "", "Provider secret key (object-storage only)")
	credsCreateCmd.Flags().Bool("no-encrypt", false, "Disable the crypto envelope for this storage definition")
	credsCreateCmd.Flags().Bool("persisted-iv", true, "Persist the IV alongside each stored object")

	credsExportCmd.Flags().String("out", "", "Output file path (default: stdout)")
	credsExportCmd.Flags().String("password", "", "Wrapping password (prompted if omitted)")

	credsImportCmd.Flags().String("in", "", "Input bundle file path (required)")
	credsImportCmd.Flags().String("password", "", "Unwrapping password (prompted if omitted)")
	credsImportCmd.Flags().Bool("overwrite", false, "Overwrite an existing key for this storage definition")
	_ = credsImportCmd.MarkFlagRequired("in")

	credsCmd.AddCommand(credsCreateCmd, credsExportCmd, credsImportCmd)
	rootCmd.AddCommand(credsCmd)
}

func secretsManager() (*secrets.Manager, error) {
	store, err := secrets.NewPlatformStore("strongroom")
	if err != nil {
		return nil, err
	}
	return secrets.NewManager(store), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func runCredsCreate(cmd *cobra.Command, args []string) error {
	dest := args[0]
	configDir, fallbackName := storageDefConfigDir(dest)

	providerStr, _ := cmd.Flags().GetString("provider")
	interfaceStr, _ := cmd.Flags().GetString("interface")
	container, _ := cmd.Flags().GetString("container")
	region, _ := cmd.Flags().GetString("region")
	endpoint, _ := cmd.Flags().GetString("endpoint")
	projectID, _ := cmd.Flags().GetString("project-id")
	accessKey, _ := cmd.Flags().GetString("access-key")
	secretKey, _ := cmd.Flags().GetString("secret-key")
	noEncrypt, _ := cmd.Flags().GetBool("no-encrypt")
	persistedIV, _ := cmd.Flags().GetBool("persisted-iv")

	def := backupinfo.StorageDefinition{
		Name:              fallbackName,
		Provider:          backupinfo.ProviderKind(providerStr),
		Interface:         backupinfo.InterfaceKind(interfaceStr),
		Container:         container,
		Region:            region,
		Endpoint:          endpoint,
		ProjectID:         projectID,
		EncryptionEnabled: !noEncrypt,
		PersistedIV:       persistedIV,
	}

	mgr, err := secretsManager()
	if err != nil {
		return err
	}

	if def.Provider == backupinfo.ProviderObjectStorage {
		if accessKey == "" || secretKey == "" {
			return fmt.Errorf("--access-key and --secret-key are required for --provider object-storage")
		}
		secret := fmt.Sprintf("key=%s,secret=%s", accessKey, secretKey)
		if projectID != "" {
			secret += ",project=" + projectID
		}
		if err := mgr.StoreProviderSecret(def.Name, secret); err != nil {
			return fmt.Errorf("store provider secret: %w", err)
		}
	}

	if def.EncryptionEnabled {
		if _, err := mgr.CreateKey(def.Name); err != nil {
			return fmt.Errorf("create encryption key: %w", err)
		}
	}

	if err := backupinfo.SaveStorageDefinition(configDir, def); err != nil {
		return fmt.Errorf("save storage definition: %w", err)
	}

	fmt.Printf("created storage definition %q (%s) at %s\n", def.Name, def.Provider, configDir)
	return nil
}

func runCredsExport(cmd *cobra.Command, args []string) error {
	dest := args[0]
	_, name := storageDefConfigDir(dest)

	password, _ := cmd.Flags().GetString("password")
	outPath, _ := cmd.Flags().GetString("out")

	if password == "" {
		pw, err := promptPassword("Wrapping password: ")
		if err != nil {
			return err
		}
		password = pw
	}

	mgr, err := secretsManager()
	if err != nil {
		return err
	}

	bundle, err := mgr.Export(name, password)
	if err != nil {
		return fmt.Errorf("export %q: %w", name, err)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return err
	}

	if outPath == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		return fmt.Errorf("write bundle to %s: %w", outPath, err)
	}
	fmt.Printf("exported %q credential bundle to %s\n", name, outPath)
	return nil
}

func runCredsImport(cmd *cobra.Command, args []string) error {
	inPath, _ := cmd.Flags().GetString("in")
	password, _ := cmd.Flags().GetString("password")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	data, err := os.ReadFile(inPath) //nolint:gosec // operator-supplied bundle path
	if err != nil {
		return fmt.Errorf("read bundle %s: %w", inPath, err)
	}

	var bundle secrets.ExportBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("parse bundle %s: %w", inPath, err)
	}

	if password == "" {
		pw, err := promptPassword("Unwrapping password: ")
		if err != nil {
			return err
		}
		password = pw
	}

	mgr, err := secretsManager()
	if err != nil {
		return err
	}

	if err := mgr.Import(&bundle, password, overwrite); err != nil {
		return fmt.Errorf("import %q: %w", bundle.Storage, err)
	}

	fmt.Printf("imported credential bundle for %q\n", bundle.Storage)
	return nil
}
