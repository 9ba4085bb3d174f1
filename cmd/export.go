package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-insert-image-kit/internal/pipeline"
)

// exportCmd は、生成済みの画像を ZIP にまとめて保存するのだ。
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "生成済みの画像を ZIP にまとめて保存するのだ。",
	Long: `セッション内で画像を持っている画像案だけを、リストの順に "<タイトル>_<番号>.jpg" として
ZIP に格納するのだ。--output を省略すると --output-dir に AI_Generated_Images.zip を作るのだ。`,
	RunE: exportCommand,
}

func init() {
	addExportFlags(exportCmd)
}

func addExportFlags(c *cobra.Command) {
	c.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "ZIP の保存先（.zip ファイル or ディレクトリ）なのだ。")
	c.Flags().BoolVar(&opts.SaveEach, "each", false, "ZIP に加えて画像を 1 枚ずつも保存するのだ。")
}

func exportCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	return pipeline.ExecuteExport(cmd.Context(), cfg, cmd.OutOrStdout())
}
