package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/pipeline"
)

// refineCmd は、自然言語の指示で画像案のプロンプトを AI に調整してもらうのだ。
var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "指示に従って画像案のプロンプトを AI に調整してもらうのだ。",
	RunE:  refineCommand,
}

func init() {
	refineCmd.Flags().StringVar(&opts.IdeaID, "id", "", "対象の画像案なのだ。")
	refineCmd.Flags().StringVarP(&opts.Instruction, "instruction", "m", "", "調整内容（例: 「もっと明るく」）なのだ。")
}

func refineCommand(cmd *cobra.Command, args []string) error {
	if opts.IdeaID == "" {
		return fmt.Errorf("調整する画像案（--id）を指定してほしいのだ")
	}
	cfg := loadConfig(cmd)
	return pipeline.ExecuteRefine(cmd.Context(), cfg, cmd.OutOrStdout())
}
