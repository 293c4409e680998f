package mcp

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/cadscope/dxf-indexer/internal/batch"
	"github.com/cadscope/dxf-indexer/internal/config"
	"github.com/cadscope/dxf-indexer/internal/dxf"
	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	dxfService *dxf.Service
	indexer    *batch.Indexer
	logger     *zap.Logger
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, dxfService *dxf.Service, logger *zap.Logger) (*Server, error) {
	if dxfService == nil {
		return nil, fmt.Errorf("dxfService cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		dxfService: dxfService,
		indexer:    batch.NewIndexer(dxfService, cfg.Workers, logger),
		logger:     logger,
		mcpServer:  mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	analyzeFileTool := mcp.NewTool(
		"dxf_analyze_file",
		mcp.WithDescription("Run the full analysis pipeline on a DXF file: entities, geometry, dimensions, materials, and BOM tables"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the DXF file"),
		),
	)
	s.mcpServer.AddTool(analyzeFileTool, s.handleAnalyzeFile)

	validateFileTool := mcp.NewTool(
		"dxf_validate_file",
		mcp.WithDescription("Validate if a file is a structurally sound DXF"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the DXF file"),
		),
	)
	s.mcpServer.AddTool(validateFileTool, s.handleValidateFile)

	statsFileTool := mcp.NewTool(
		"dxf_stats_file",
		mcp.WithDescription("Get file-level statistics about a DXF file without running the full pipeline"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the DXF file"),
		),
	)
	s.mcpServer.AddTool(statsFileTool, s.handleStatsFile)

	searchDirectoryTool := mcp.NewTool(
		"dxf_search_directory",
		mcp.WithDescription("Search for DXF files in a directory with an optional name filter"),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Directory path to search"),
		),
		mcp.WithString("query",
			mcp.Description("Optional case-insensitive substring of the file name"),
		),
	)
	s.mcpServer.AddTool(searchDirectoryTool, s.handleSearchDirectory)

	indexDirectoryTool := mcp.NewTool(
		"dxf_index_directory",
		mcp.WithDescription("Analyze every DXF file under a directory and report a per-file manifest"),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Directory containing DXF files"),
		),
	)
	s.mcpServer.AddTool(indexDirectoryTool, s.handleIndexDirectory)

	serverInfoTool := mcp.NewTool(
		"dxf_server_info",
		mcp.WithDescription("Get server information, available tools, and usage guidance"),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleAnalyzeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.dxfService.AnalyzeFile(dxf.AnalyzeFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatAnalyzeFileResult(result)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.dxfService.ValidateFile(dxf.ValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("DXF file %s is valid and readable", result.Path)
	} else {
		responseText = fmt.Sprintf("DXF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleStatsFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.dxfService.StatsFile(dxf.StatsFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatStatsFileResult(result)), nil
}

func (s *Server) handleSearchDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	directory, err := request.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	query := ""
	if q, ok := args["query"].(string); ok {
		query = q
	}

	result, err := s.dxfService.SearchDirectory(dxf.SearchDirectoryRequest{
		Directory: directory,
		Query:     query,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No DXF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
	} else {
		responseText = s.formatSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleIndexDirectory(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	directory, err := request.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	search, err := s.dxfService.SearchDirectory(dxf.SearchDirectoryRequest{Directory: directory})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files := make([]string, 0, len(search.Files))
	for _, f := range search.Files {
		files = append(files, f.Path)
	}

	results := s.indexer.Run(ctx, files)
	manifest := batch.ManifestFrom(results)

	return mcp.NewToolResultText(s.formatManifest(directory, manifest)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Workers: %d\n", s.config.Workers)
	if s.config.RulesPath != "" {
		text += fmt.Sprintf("Custom rules: %s\n", s.config.RulesPath)
	}
	text += "\nAvailable Tools:\n"
	text += "• dxf_analyze_file - full pipeline over one file (entities, dimensions, materials, BOM)\n"
	text += "• dxf_validate_file - structural validation of one file\n"
	text += "• dxf_stats_file - file-level facts without analysis\n"
	text += "• dxf_search_directory - find DXF files by name\n"
	text += "• dxf_index_directory - analyze every DXF under a directory\n"
	text += "• dxf_server_info - this information\n"

	return mcp.NewToolResultText(text), nil
}

// Formatting methods
func (s *Server) formatAnalyzeFileResult(result *dxf.AnalyzeFileResult) string {
	sum := result.Summary

	text := fmt.Sprintf("Analyzed DXF: %s\n", sum.Source)
	if sum.Version != "" {
		text += fmt.Sprintf("Version: %s\n", sum.Version)
	}
	text += fmt.Sprintf("Entities: %d\n", sum.EntityCount)
	text += fmt.Sprintf("Layers: %d\n", sum.LayerCount)

	if len(sum.TypeCounts) > 0 {
		types := make([]string, 0, len(sum.TypeCounts))
		for t := range sum.TypeCounts {
			types = append(types, string(t))
		}
		sort.Strings(types)
		text += "\nEntity counts:\n"
		for _, t := range types {
			text += fmt.Sprintf("  %s: %d\n", t, sum.TypeCounts[model.EntityType(t)])
		}
	}

	if len(sum.KeyDimensions) > 0 {
		text += "\nKey dimensions:\n"
		for _, dim := range sum.KeyDimensions {
			if dim.Measurement != nil {
				text += fmt.Sprintf("  %g", *dim.Measurement)
				if dim.Text != "" {
					text += fmt.Sprintf(" (%s)", dim.Text)
				}
				text += "\n"
			}
		}
	}
	text += fmt.Sprintf("\nDimensions: %d\n", len(sum.Dimensions))

	if len(sum.Materials) > 0 {
		text += "Materials:\n"
		for _, mat := range sum.Materials {
			text += fmt.Sprintf("  %s", mat.Content)
			if mat.Layer != "" {
				text += fmt.Sprintf(" (layer %s)", mat.Layer)
			}
			text += "\n"
		}
	}

	if sum.HasBOM {
		text += fmt.Sprintf("BOM: yes (%d rows)\n", len(sum.BOMRows))
		for i, row := range sum.BOMRows {
			text += fmt.Sprintf("  %d. part_no=%q qty=%q material=%q desc=%q\n",
				i+1, row.PartNo, row.Quantity, row.Material, row.Description)
		}
	} else {
		text += "BOM: no\n"
	}
	text += fmt.Sprintf("Notes: %d\n", sum.NoteCount)

	if len(result.Diagnostics) > 0 {
		text += fmt.Sprintf("\nDiagnostics (%d):\n", len(result.Diagnostics))
		for _, diag := range result.Diagnostics {
			text += fmt.Sprintf("  [%s] %s", diag.Code, diag.Detail)
			if diag.EntityHandle != "" {
				text += fmt.Sprintf(" (handle %s)", diag.EntityHandle)
			}
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatStatsFileResult(result *dxf.StatsFileResult) string {
	text := "DXF File Statistics\n"
	text += fmt.Sprintf("File: %s\n", result.Path)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	text += fmt.Sprintf("Modified: %s\n", result.ModifiedTime)
	if result.Version != "" {
		text += fmt.Sprintf("Format version: %s\n", result.Version)
	}
	text += fmt.Sprintf("Raw entities: %d\n", result.RawEntityCount)
	if len(result.DeclaredLayers) > 0 {
		text += fmt.Sprintf("Declared layers (%d):\n", len(result.DeclaredLayers))
		for _, layer := range result.DeclaredLayers {
			text += fmt.Sprintf("  • %s\n", layer)
		}
	}
	return text
}

func (s *Server) formatSearchDirectoryResult(result *dxf.SearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d DXF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf("Search query: %s\n", result.SearchQuery)
	}
	text += "\nFiles:\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			text += "\n"
		}
	}

	return text
}

func (s *Server) formatManifest(directory string, manifest batch.Manifest) string {
	text := fmt.Sprintf("Indexed %d DXF file(s) under %s\n", len(manifest), directory)
	text += fmt.Sprintf("Completed: %d, Failed: %d, Cancelled: %d\n\n",
		manifest.Completed(), manifest.Failed(), manifest.Cancelled())

	for _, entry := range manifest {
		switch entry.Outcome {
		case batch.OutcomeCompleted:
			text += fmt.Sprintf("[OK]   %s", entry.File)
			if entry.Summary != nil {
				text += fmt.Sprintf(" (%d entities, %d dimensions, %d materials)",
					entry.Summary.EntityCount, len(entry.Summary.Dimensions), len(entry.Summary.Materials))
			}
			text += "\n"
		case batch.OutcomeFailed:
			text += fmt.Sprintf("[FAIL] %s: %s\n", entry.File, entry.Error)
		case batch.OutcomeCancelled:
			text += fmt.Sprintf("[SKIP] %s: cancelled\n", entry.File)
		}
	}

	return text
}

// Run starts the MCP server over stdio
func (s *Server) Run(_ context.Context) error {
	s.logger.Info("starting MCP server in stdio mode",
		zap.String("name", s.config.ServerName),
		zap.String("version", s.config.Version))

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
