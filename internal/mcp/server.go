package mcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-widget-renamer/internal/config"
	"github.com/a3tai/pdf-widget-renamer/internal/pdf"
	"github.com/a3tai/pdf-widget-renamer/internal/renamer"
)

const outputFilePerm = 0o644

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *renamer.Service
	paths     *pdf.PathValidator
	validator *pdf.Validator
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *renamer.Service, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("renamer service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	paths, err := pdf.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, err
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   service,
		paths:     paths,
		validator: pdf.NewValidator(cfg.MaxFileSize),
		logger:    logger,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	renameTool := mcp.NewTool(
		"pdf_rename_widgets",
		mcp.WithDescription("Label every form field of a PDF and normalize field names against the vocabulary. "+
			"Writes the renamed PDF and returns the per-field report"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
		mcp.WithString("output",
			mcp.Description("Where to write the renamed PDF (defaults to <name>.renamed.pdf next to the input)"),
		),
	)
	s.mcpServer.AddTool(renameTool, s.handleRenameWidgets)

	labelsTool := mcp.NewTool(
		"pdf_extract_labels",
		mcp.WithDescription("List every form field of a PDF with the printed label found next to it"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(labelsTool, s.handleExtractLabels)
}

// Handler functions
func (s *Server) handleRenameWidgets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	inPath, data, err := s.readPDF(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outPath, err := s.outputPath(inPath, request.GetString("output", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Rename(ctx, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := os.WriteFile(outPath, result.PDF, outputFilePerm); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write %s: %v", outPath, err)), nil
	}

	s.logger.Info("renamed widgets",
		zap.String("input", inPath),
		zap.String("output", outPath),
		zap.Int("changed", result.Report.ChangedWidgets))

	return mcp.NewToolResultText(s.formatRenameResult(inPath, outPath, result.Report)), nil
}

func (s *Server) handleExtractLabels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	inPath, data, err := s.readPDF(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rows, err := s.service.ExtractLabels(ctx, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatLabelsResult(inPath, rows)), nil
}

func (s *Server) readPDF(path string) (string, []byte, error) {
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return "", nil, err
	}
	data, err := s.validator.ReadFile(resolved)
	if err != nil {
		return "", nil, err
	}
	return resolved, data, nil
}

func (s *Server) outputPath(inPath, requested string) (string, error) {
	if requested == "" {
		ext := filepath.Ext(inPath)
		requested = strings.TrimSuffix(inPath, ext) + ".renamed" + ext
	}
	out, err := s.paths.Resolve(requested)
	if err != nil {
		return "", err
	}
	if out == inPath {
		return "", fmt.Errorf("output must differ from input: %s", out)
	}
	return out, nil
}

// Formatting methods
func (s *Server) formatRenameResult(inPath, outPath string, report *renamer.Report) string {
	text := fmt.Sprintf("Renamed form fields in: %s\n", inPath)
	text += fmt.Sprintf("Output: %s\n", outPath)
	text += fmt.Sprintf("Pipeline: %s\n", report.Pipeline)
	text += fmt.Sprintf("Widgets: %d total, %d changed, %d unchanged\n",
		report.TotalWidgets, report.ChangedWidgets, report.UnchangedWidgets)
	text += fmt.Sprintf("Accuracy: %.2f%%\n", report.Accuracy)
	if report.ChangedWidgets > 0 {
		text += fmt.Sprintf("Renames: %d succeeded, %d failed (%.2f%%)\n",
			report.SuccessfulRenames, report.FailedRenames, report.SuccessRate)
	}

	if len(report.MappingInfo) > 0 {
		text += "\nFields:\n"
	}
	for i, rec := range report.MappingInfo {
		text += fmt.Sprintf("%d. Page %d: %s", i+1, rec.Page, displayName(rec.OriginalName))
		if rec.NewName != rec.OriginalName {
			text += fmt.Sprintf(" -> %s", rec.NewName)
		}
		if rec.Label != "" {
			text += fmt.Sprintf(" [label: %s]", rec.Label)
		}
		if rec.Error != "" {
			text += fmt.Sprintf(" (rename failed: %s)", rec.Error)
		}
		text += "\n"
	}

	return text
}

func (s *Server) formatLabelsResult(inPath string, rows []renamer.LabelRow) string {
	text := fmt.Sprintf("Form field labels for: %s\n", inPath)
	text += fmt.Sprintf("Total fields found: %d\n", len(rows))

	if len(rows) > 0 {
		text += "\nFields:\n"
	}
	for i, row := range rows {
		label := row.Label
		if label == "" {
			label = "(none)"
		}
		text += fmt.Sprintf("%d. Page %d: %s, label: %s", i+1, row.Page, displayName(row.FieldName), label)
		if row.Tooltip != "" {
			text += fmt.Sprintf(", tooltip: %s", row.Tooltip)
		}
		text += "\n"
	}

	return text
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}

// Run serves MCP over standard I/O until stdin closes or ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve speaks MCP over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP server on stdio", zap.String("directory", s.paths.Root()))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
