package main

import (
	"github.com/aretw0/buddy/internal/config"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Write the browser extension and print how to load it",
	Long: `Writes manifest.json, background.js and icon.png into the extension directory,
pointing the extension at the configured ingress URL. The files are kept; use
"buddy serve --install" for files that are removed again at shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, closer, err := openLogger(cfg, false)
		if err != nil {
			return err
		}
		defer closer.Close()

		_, err = installExtension(cfg, logger, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().String("dir", config.DefaultExtensionDir, "Directory for the extension files")
	installCmd.Flags().String("host", config.DefaultHost, "Ingress host the extension posts to")
	installCmd.Flags().IntP("port", "p", config.DefaultPort, "Ingress port the extension posts to")
	installCmd.Flags().String("path", config.DefaultPath, "Ingress path the extension posts to")
}
