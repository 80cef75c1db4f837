package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pdfmark/internal/convert"
)

// convertCmd converts a single PDF from the command line.
var convertCmd = &cobra.Command{
	Use:   "convert <input.pdf>",
	Short: "Convert a PDF file to Markdown",
	Long: `Convert a PDF file to Markdown, preserving reading order and
rendering detected tables as Markdown tables.

Examples:
  pdfmark convert document.pdf
  pdfmark convert document.pdf --output out.md
  pdfmark convert document.pdf --start-page 2 --end-page 10 --no-tables`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		chunkSize := cfg.Converter.ChunkSize
		if cmd.Flags().Changed("chunk-size") {
			chunkSize, _ = cmd.Flags().GetInt("chunk-size")
		}
		tableMinColumns := cfg.Converter.TableMinColumns
		if cmd.Flags().Changed("table-min-columns") {
			tableMinColumns, _ = cmd.Flags().GetInt("table-min-columns")
		}

		output, _ := cmd.Flags().GetString("output")
		startPage, _ := cmd.Flags().GetInt("start-page")
		endPage, _ := cmd.Flags().GetInt("end-page")
		noTables, _ := cmd.Flags().GetBool("no-tables")
		noImages, _ := cmd.Flags().GetBool("no-images")

		ocrService, err := newOCRService(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = ocrService.Close() }()

		convCfg := convert.DefaultConfig()
		convCfg.ChunkSize = chunkSize
		convCfg.Reader.DetectTables = cfg.Converter.TableDetectionEnabled && !noTables
		convCfg.Reader.ExtractImages = cfg.Converter.ExtractImages && !noImages
		convCfg.Reader.TableMinColumns = tableMinColumns
		convCfg.Fusion.TableMinColumns = tableMinColumns
		convCfg.Fusion.PreserveFormatting = cfg.Converter.PreserveFormatting

		progress := convert.NewConsoleProgress(os.Stderr, "Converting: ")
		converter := convert.New(convCfg, ocrService)

		res, err := converter.Convert(cmd.Context(), args[0], convert.Options{
			OutputPath: output,
			StartPage:  startPage,
			EndPage:    endPage,
			OnProgress: progress.Update,
		})
		if err != nil {
			return fmt.Errorf("conversion failed: %w", err)
		}
		progress.Finish()

		fmt.Fprintf(cmd.OutOrStdout(), "Markdown written to %s\n", res.MarkdownPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Pages: %d, tables: %d, time: %.2fs\n",
			res.PagesProcessed, res.TablesFound, res.ProcessingSeconds)
		for _, pageErr := range res.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", pageErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("output", "o", "", "output Markdown path (default: alongside the input)")
	convertCmd.Flags().Int("start-page", 0, "first page to convert (1-based)")
	convertCmd.Flags().Int("end-page", 0, "last page to convert (inclusive)")
	convertCmd.Flags().Int("chunk-size", 0, "pages per processing batch")
	convertCmd.Flags().Int("table-min-columns", 0, "minimum columns for table detection")
	convertCmd.Flags().Bool("no-tables", false, "disable table detection")
	convertCmd.Flags().Bool("no-images", false, "skip embedded image extraction and OCR")
}
