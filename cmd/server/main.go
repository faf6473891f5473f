// Package main 是应用程序的入口点。
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "pdf-chatbot",
		Short: "Chat with, summarize and compare uploaded PDF documents",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "path to config.yaml")

	root.AddCommand(serveCmd())
	root.AddCommand(renderCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
