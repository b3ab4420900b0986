package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"nebula/internal/address"
	"nebula/internal/nebulaconfig"
	"nebula/internal/node"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := nebulaconfig.LoadFromFile(defaultConfigPath())
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	n, err := node.New(node.Config{
		HomeDir:       cfg.StorageDir,
		ListenAddress: cfg.ListenAddress,
		ListenPort:    cfg.ListenPort,
		LogLevel:      cfg.LogLevelValue(),
		DaemonMode:    cfg.DaemonMode,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "start":
		cmdStart(n)
	case "put":
		cmdPut(n, args)
	case "get":
		cmdGet(n, args)
	case "list":
		cmdList(n)
	case "list-files":
		cmdListFiles(n)
	case "stats":
		cmdStats(n)
	case "status":
		cmdStatus(n)
	case "config":
		cmdConfig(cfg, args)
	case "stop":
		cmdStop(n)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func cmdStart(n *node.Node) {
	if err := n.Start(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Node started.")
}

func cmdStop(n *node.Node) {
	if err := n.Stop(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Node stopped.")
}

func cmdPut(n *node.Node, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: nebula put <path> [--format id|short|json|addresses]")
		os.Exit(1)
	}
	path := args[0]
	format := "short"
	for i := 1; i < len(args)-1; i++ {
		if args[i] == "--format" {
			format = args[i+1]
		}
	}

	if err := n.Start(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	meta, err := n.PutFile(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	switch format {
	case "id":
		fmt.Println(meta.ID)
	case "json":
		data, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	case "addresses":
		addrs := make([]string, len(meta.ChunkAddresses))
		for i, a := range meta.ChunkAddresses {
			addrs[i] = a.String()
		}
		fmt.Println(strings.Join(addrs, "\n"))
	default:
		fmt.Println(meta.ShortID())
	}
}

func cmdGet(n *node.Node, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: nebula get <id|short|address> --output <path>")
		os.Exit(1)
	}
	identifier := args[0]
	output := ""
	for i := 1; i < len(args)-1; i++ {
		if args[i] == "--output" {
			output = args[i+1]
		}
	}
	if output == "" {
		fmt.Println("Usage: nebula get <id|short|address> --output <path>")
		os.Exit(1)
	}

	if err := n.Start(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	var err error
	if id, parseErr := uuid.Parse(identifier); parseErr == nil {
		err = n.GetFileByID(id, output)
	} else if addr, parseErr := address.Parse(identifier); parseErr == nil {
		err = n.GetFileByAddresses([]address.Address{addr}, output)
	} else {
		err = n.GetFileByShortID(identifier, output)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Written to %s\n", output)
}

func cmdList(n *node.Node) {
	lines, err := n.ListContentVerbose()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	for _, l := range lines {
		fmt.Println(l)
	}
}

func cmdListFiles(n *node.Node) {
	for _, l := range n.ListFilesVerbose() {
		fmt.Println(l)
	}
}

func cmdStats(n *node.Node) {
	stats, err := n.Stats()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("chunks: %d\nsize:   %d bytes\nfiles:  %d\n",
		stats.StoreStats.TotalChunks, stats.StoreStats.TotalSize, stats.FileCount)
}

func cmdStatus(n *node.Node) {
	status, err := n.DetailedStatus()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(status)
}

func cmdConfig(cfg nebulaconfig.Config, args []string) {
	if len(args) > 0 && args[0] == "--show" {
		fmt.Printf("%+v\n", cfg)
		return
	}
	fmt.Println("Usage: nebula config --show")
	os.Exit(1)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return home + "/.nebula/config.json"
}

func printUsage() {
	fmt.Println("nebula - content-addressable object store")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  nebula start                                  Start the node")
	fmt.Println("  nebula put <path> [--format id|short|json|addresses]")
	fmt.Println("  nebula get <id|short|address> --output <path>")
	fmt.Println("  nebula list                                   List stored chunks")
	fmt.Println("  nebula list-files                             List registered files")
	fmt.Println("  nebula stats                                  Show store/registry stats")
	fmt.Println("  nebula status                                 Show detailed node status")
	fmt.Println("  nebula config --show                          Show current configuration")
	fmt.Println("  nebula stop                                   Stop the node")
}
