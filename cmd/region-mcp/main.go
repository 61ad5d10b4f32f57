package main

import (
	"fmt"
	"os"

	"github.com/ironsheep/region-editor-mcp/internal/config"
	"github.com/ironsheep/region-editor-mcp/internal/logging"
	"github.com/ironsheep/region-editor-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := config.GetConfigPath()

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("region-editor-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config needs a file path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown option: %s (see --help)\n", args[i])
			os.Exit(2)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		// Logging is not set up yet; stderr keeps stdout clean for MCP.
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	logging.Debugf("Region editor MCP server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	logging.Debugf("Config: %s", configPath)

	server.Version = Version
	srv, err := server.New(cfg)
	if err != nil {
		logging.Fatalf("Failed to start server: %v", err)
	}
	if err := srv.Run(); err != nil {
		logging.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Println("region-editor-mcp - MCP server for redacting and cropping document images")
	fmt.Println()
	fmt.Println("Usage: region-editor-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c PATH   Config file (default ~/.config/region-editor-mcp/config.json)")
	fmt.Println("  --version, -v       Print version information")
	fmt.Println("  --help, -h          Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug    Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s          Detection service URL\n", config.EnvDetectionURL)
	fmt.Printf("  %s        Recognition service URL\n", config.EnvRecognitionURL)
	fmt.Printf("  %s             Upload service URL\n", config.EnvUploadURL)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
