// Package clientcli implements the interactive shell of the client
// binary.
package clientcli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	dfs "go-dfs/pkg/dfs-sdk"
)

type App struct {
	coordinators []string
	timeout      time.Duration
	client       *dfs.Client
}

func Run(args []string) error {
	app := &App{
		coordinators: []string{"localhost:5000", "localhost:5001", "localhost:5002"},
		timeout:      2 * time.Second,
	}
	if err := app.parseFlags(args); err != nil {
		return err
	}

	client, err := dfs.New(app.coordinators, dfs.WithAttemptTimeout(app.timeout))
	if err != nil {
		return err
	}
	app.client = client

	fmt.Printf("Known coordinators: %s\n", strings.Join(app.coordinators, ", "))
	fmt.Println("Type 'help' for commands, 'exit' to quit")
	fmt.Println()

	completer := readline.NewPrefixCompleter(
		readline.PcItem("upload"),
		readline.PcItem("download"),
		readline.PcItem("nodes"),
		readline.PcItem("locate"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dfs> ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := parseArgs(line)
		if len(args) == 0 {
			continue
		}

		if err := app.dispatch(args[0], args[1:]); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}

	return nil
}

func (a *App) parseFlags(args []string) error {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-coordinators":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for -coordinators")
			}
			a.coordinators = strings.Split(args[i+1], ",")
			i++
		case "-timeout":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for -timeout")
			}
			d, err := time.ParseDuration(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid -timeout: %w", err)
			}
			a.timeout = d
			i++
		}
	}
	return nil
}

func (a *App) dispatch(cmd string, args []string) error {
	switch cmd {
	case "upload", "put":
		return a.cmdUpload(args)
	case "download", "get":
		return a.cmdDownload(args)
	case "nodes":
		return a.cmdNodes(args)
	case "locate":
		return a.cmdLocate(args)
	case "status":
		return a.cmdStatus(args)
	case "help":
		printHelp()
		return nil
	case "exit", "quit":
		fmt.Println("Goodbye!")
		os.Exit(0)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}
