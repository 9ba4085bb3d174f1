package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/pipeline"
)

var ratiosCmd = &cobra.Command{
	Use:         "ratios",
	Short:       "選択できるアスペクト比を一覧表示するのだ。",
	Annotations: map[string]string{skipAPIKeyCheck: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline.PrintAspectRatios(cmd.OutOrStdout())
		return nil
	},
}
