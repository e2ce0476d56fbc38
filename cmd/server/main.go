package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:          "chatbot",
		Short:        "Musashi Miyamoto chatbot backed by Gemini",
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and chat UI",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	askCmd = &cobra.Command{
		Use:   "ask [message]",
		Short: "Send a single message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("model", "", "Gemini model")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("session-backend", "", "session backing (memory, mongo, sqlite)")

	serveCmd.Flags().String("port", "", "HTTP listen port")
	askCmd.Flags().String("session", "", "continue an existing session")

	rootCmd.AddCommand(serveCmd, askCmd)

	mustBind("model", rootCmd.PersistentFlags().Lookup("model"))
	mustBind("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("session_backend", rootCmd.PersistentFlags().Lookup("session-backend"))
	mustBind("port", serveCmd.Flags().Lookup("port"))
}

func main() {
	// A missing .env file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
