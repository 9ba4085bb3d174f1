package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/pipeline"
)

// editCmd は、セッション内の画像案のプロンプトやアスペクト比を手で書き換えるのだ。
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "画像案のプロンプトやアスペクト比を書き換えるのだ。",
	Long: `--id で画像案を指定し（ID、先頭一致、または 1 始まりの番号）、
--prompt でプロンプトを、--aspect でアスペクト比を変更するのだ。
書き換えるとその画像案のエラー表示は消えるのだ。`,
	RunE: editCommand,
}

func init() {
	editCmd.Flags().StringVar(&opts.IdeaID, "id", "", "対象の画像案なのだ。")
	editCmd.Flags().StringVarP(&opts.Prompt, "prompt", "p", "", "新しいプロンプトなのだ。")
}

func editCommand(cmd *cobra.Command, args []string) error {
	if opts.IdeaID == "" {
		return fmt.Errorf("書き換える画像案（--id）を指定してほしいのだ")
	}
	// --aspect は共通フラグで既定値を持つので、明示されたときだけ反映するのだ
	if !cmd.Flags().Changed("aspect") {
		opts.AspectRatio = ""
	}
	// 空のプロンプトへの書き換えも受け付けるので、値ではなく指定の有無で判断するのだ
	opts.PromptSet = cmd.Flags().Changed("prompt")
	if !opts.PromptSet && opts.AspectRatio == "" {
		return fmt.Errorf("--prompt か --aspect のどちらかを指定してほしいのだ")
	}

	cfg := loadConfig(cmd)
	return pipeline.ExecuteEdit(cmd.Context(), cfg, cmd.OutOrStdout())
}
