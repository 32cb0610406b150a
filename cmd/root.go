package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"stripdrop/internal/config"
	"stripdrop/internal/logging"
	"stripdrop/internal/processor"
	"stripdrop/internal/tui"
)

var (
	configPath string
	logPath    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "stripdrop",
	Short: "stripdrop - drop images in, get metadata-free copies out",
	Long: "stripdrop rebuilds dropped images from their pixels alone, discarding EXIF, XMP, ICC and text chunks.\n" +
		"Drag files or image URLs onto the window, then copy the cleaned files with ctrl+y.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.Open(configPath)
		if err != nil {
			return err
		}
		prefs, err := store.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			prefs.LogLevel = logLevel
		}

		if logPath == "" {
			if logPath, err = logging.DefaultPath(); err != nil {
				return err
			}
		}
		logFile, err := logging.OpenFile(logPath)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger := logging.New(logging.Config{Level: prefs.LogLevel, Format: prefs.LogFormat, Output: logFile})
		logger.Info("starting", "config", store.Path())

		coord := processor.NewCoordinator(&http.Client{}, processor.NewTempRegistry(), logger)

		model := tui.NewModel(context.Background(), tui.Options{
			Coordinator:     coord,
			Preferences:     prefs,
			SavePreferences: store.Save,
			Logger:          logger,
		})
		_, runErr := tea.NewProgram(model).Run()

		removed := coord.Registry().Purge(logger)
		logger.Info("shutdown", "temp_files_removed", removed)
		return runErr
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/stripdrop/config.yaml)")
	rootCmd.Flags().StringVar(&logPath, "log-file", "", "log file (default is stripdrop.log in the user cache directory)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}
