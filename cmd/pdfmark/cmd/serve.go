package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/pdfmark/internal/convert"
	"github.com/MeKo-Tech/pdfmark/internal/jobs"
	"github.com/MeKo-Tech/pdfmark/internal/server"
	"github.com/MeKo-Tech/pdfmark/internal/store"
)

// serveCmd starts the HTTP conversion service.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP conversion API",
	Long: `Start an HTTP server exposing the PDF to Markdown conversion API.

Endpoints:
  POST   /file/upload                      - upload a PDF
  GET    /file/info/{file_id}              - file metadata
  GET    /file/list                        - list uploads
  DELETE /file/delete/{file_id}            - delete an upload
  POST   /file/convert2md                  - submit a conversion job
  GET    /file/convert2md/result/{task_id} - poll job status and result
  GET    /file/convert2md/ws/{task_id}     - WebSocket progress stream
  GET    /health                           - health check
  GET    /metrics                          - Prometheus metrics

Examples:
  pdfmark serve
  pdfmark serve --port 8080
  pdfmark serve --host 127.0.0.1 --upload-dir /data/uploads`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		uploadDir := cfg.Storage.UploadDir
		if cmd.Flags().Changed("upload-dir") {
			uploadDir, _ = cmd.Flags().GetString("upload-dir")
		}

		files, err := store.NewFileStore(uploadDir)
		if err != nil {
			return fmt.Errorf("failed to open upload directory: %w", err)
		}

		ocrService, err := newOCRService(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = ocrService.Close() }()

		convCfg := convert.DefaultConfig()
		convCfg.ChunkSize = cfg.Converter.ChunkSize
		convCfg.Reader.DetectTables = cfg.Converter.TableDetectionEnabled
		convCfg.Reader.ExtractImages = cfg.Converter.ExtractImages
		convCfg.Reader.TableMinColumns = cfg.Converter.TableMinColumns
		convCfg.Fusion.TableMinColumns = cfg.Converter.TableMinColumns
		convCfg.Fusion.PreserveFormatting = cfg.Converter.PreserveFormatting
		converter := convert.New(convCfg, ocrService)

		manager := jobs.NewManager(jobs.Config{
			MaxConcurrent:       cfg.Converter.MaxConcurrentJobs,
			Retention:           cfg.Jobs.Retention,
			ProgressLogInterval: cfg.Converter.ProgressUpdateInterval,
		}, files, converter.Convert)
		defer manager.Close()

		srv := server.NewServer(server.Config{
			Host:          host,
			Port:          port,
			CORSOrigins:   cfg.Security.CORSOrigins,
			APIKeys:       cfg.Security.APIKeys,
			MaxUploadSize: cfg.Server.MaxUploadSize,
		}, files, manager)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "host to bind")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on")
	serveCmd.Flags().String("upload-dir", "", "directory for uploaded files")
}
