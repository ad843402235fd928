package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/blurcluster-mcp/internal/config"
	"github.com/ironsheep/blurcluster-mcp/internal/monitoring"
	"github.com/ironsheep/blurcluster-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "--version", "-v", "version":
		fmt.Printf("blurcluster %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		printUsage()
		return
	}

	// Configure logging to stderr (stdout is for MCP protocol and results)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("BLURCLUSTER_LOG_LEVEL") == "debug" {
		monitoring.SetDebug(true)
		log.Printf("blurcluster v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	srv := server.New(cfg)
	server.Version = Version

	switch command {
	case "serve":
		if err := srv.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case "cluster":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(2)
		}
		renderPrefix := ""
		if len(os.Args) > 3 {
			renderPrefix = os.Args[3]
		}
		result, err := srv.ClusterFile(os.Args[2], renderPrefix)
		if err != nil {
			log.Fatalf("Clustering failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatalf("Failed to write result: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", command)
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("blurcluster - blurred hit clustering with an MCP server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  blurcluster [serve]                            Run the MCP server on stdin/stdout")
	fmt.Println("  blurcluster cluster <event.json> [prefix]      Cluster an event and print JSON;")
	fmt.Println("                                                 with prefix, write <prefix>_plane<N>.png")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  BLURCLUSTER_LOG_LEVEL=debug      Enable debug logging")
	fmt.Println("  BLURCLUSTER_CONFIG=<file.json>   Load clustering parameters from a tuning file")
}
