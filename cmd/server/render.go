package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"smart-pdf-chatbot/internal/config"
	"smart-pdf-chatbot/internal/pipeline"
	"smart-pdf-chatbot/pkg/idgen"
	"smart-pdf-chatbot/pkg/storage"

	"github.com/spf13/cobra"
)

// renderCmd 把一份保存下来的模型原始回复渲染成对比报告，写入本地报告目录。
func renderCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "render <reply-file>",
		Short: "Render a raw comparison reply into a dashboard file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read reply: %w", err)
			}
			if outDir == "" {
				_, cfg, err := config.Load(configPathIfExists())
				if err != nil {
					return err
				}
				outDir = cfg.Artifacts.Dir
			}
			store, err := storage.NewLocalArtifactStore(outDir)
			if err != nil {
				return err
			}
			artifact, err := pipeline.BuildComparisonArtifact(idgen.Default().NextString(), string(raw), time.Now())
			if err != nil {
				return err
			}
			url, err := store.Write(context.Background(), artifact)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "dashboard directory (default: artifacts.dir from config)")
	return cmd
}

// configPathIfExists 在默认配置文件不存在时退回到默认值与环境变量。
func configPathIfExists() string {
	if _, err := os.Stat(configPath); err != nil {
		return ""
	}
	return configPath
}
