package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"declang/pkg/auth"
	"declang/pkg/config"
	"declang/pkg/eval"
	"declang/pkg/lexer"
	"declang/pkg/notify"
	"declang/pkg/server"
	"declang/pkg/suite"
	"declang/pkg/symtab"
	"declang/pkg/token"
	"declang/pkg/version"
)

const PROMPT = ">>> "

const fileExt = ".dl"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stdout)
		return 0
	}

	command := args[0]

	// Handle flags
	switch command {
	case "--version", "-v", "version":
		printVersion(stdout)
		return 0
	case "--help", "-h", "help":
		printHelp(stdout)
		return 0
	}

	// A bare script path is shorthand for `declang run <file>`
	if strings.HasSuffix(command, fileExt) && len(command) > len(fileExt) {
		return runFile(args, stdout, stderr)
	}

	rest := args[1:]
	switch command {
	case "run":
		return runFile(rest, stdout, stderr)
	case "eval":
		return evalCode(rest, stdout, stderr)
	case "repl":
		return startREPL(rest, stdin, stdout, stderr)
	case "tokens":
		return printTokens(rest, stdout, stderr)
	case "check":
		return checkSuites(rest, stdout, stderr)
	case "serve":
		return serve(rest, stderr)
	case "hash-password":
		return hashPassword(rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		printHelp(stderr)
		return 1
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "declang v"+version.Version)
	fmt.Fprintln(out, "\nUsage:")
	fmt.Fprintln(out, "  declang <file.dl>          Run a script")
	fmt.Fprintln(out, "  declang repl               Start interactive REPL")
	fmt.Fprintln(out, "  declang help               Show all commands")
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "declang: declare, show, and branch")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  declang <file.dl>               Run a script (shortcut for 'declang run')")
	fmt.Fprintln(out, "  declang run [--legacy] <file>   Execute a script")
	fmt.Fprintln(out, "  declang eval [--legacy] '<code>' Execute inline code")
	fmt.Fprintln(out, "  declang repl [--legacy]         Start the interactive REPL")
	fmt.Fprintln(out, "  declang tokens <file>           Print the token stream")
	fmt.Fprintln(out, "  declang check <suite.yaml>...   Run conformance suites")
	fmt.Fprintln(out, "  declang serve [--env file]      Start the HTTP server")
	fmt.Fprintln(out, "  declang hash-password <pw>      Print a bcrypt hash for AUTH_PASSWORD_HASH")
	fmt.Fprintln(out, "  declang version                 Display build metadata")
	fmt.Fprintln(out, "  declang help                    Show this help message")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fmt.Fprintln(out, "  --legacy    Reject every identifier already declared, at lexing time")
}

func printVersion(out io.Writer) {
	fmt.Fprintf(out, "declang %s\n", version.Version)
	fmt.Fprintf(out, "Build Date: %s\n", version.BuildDate)
	fmt.Fprintf(out, "Git Commit: %s\n", version.GitCommit)
}

// parseRunFlags handles the flags shared by run, eval and repl.
func parseRunFlags(name string, args []string, stderr io.Writer) ([]eval.Option, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	legacy := fs.Bool("legacy", false, "reject already-declared identifiers at lexing time")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	var opts []eval.Option
	if *legacy {
		opts = append(opts, eval.WithLegacyGuard())
	}
	return opts, fs.Args(), nil
}

func runFile(args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseRunFlags("run", args, stderr)
	if err != nil {
		return 2
	}
	if len(rest) != 1 {
		fmt.Fprintln(stderr, "Usage: declang run [--legacy] <file>")
		return 1
	}

	data, err := os.ReadFile(rest[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %v\n", err)
		return 1
	}
	if err := eval.Run(string(data), stdout, opts...); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", rest[0], err)
		return 1
	}
	return 0
}

func evalCode(args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseRunFlags("eval", args, stderr)
	if err != nil {
		return 2
	}
	if len(rest) != 1 {
		fmt.Fprintln(stderr, "Usage: declang eval [--legacy] '<code>'")
		return 1
	}
	if err := eval.Run(rest[0], stdout, opts...); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

// startREPL runs each line against one symbol table, so variables persist
// between lines. Errors are reported and the session continues.
func startREPL(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, _, err := parseRunFlags("repl", args, stderr)
	if err != nil {
		return 2
	}

	scanner := bufio.NewScanner(stdin)
	env := symtab.New()

	fmt.Fprintf(stdout, "declang REPL v%s\n", version.Version)
	fmt.Fprintln(stdout, "Type statements and press Enter; :vars lists variables")

	for {
		fmt.Fprint(stdout, PROMPT)
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			return 0
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == ":vars" {
			printVars(stdout, env)
			continue
		}

		if err := eval.New(line, env, stdout, opts...).Run(); err != nil {
			fmt.Fprintf(stdout, "ERROR: %v\n", err)
		}
	}
}

func printVars(out io.Writer, env *symtab.Table) {
	for _, name := range env.Names() {
		e, _ := env.Lookup(name)
		fmt.Fprintf(out, "  %s = %s (%s)\n", name, e.Value, e.Type)
	}
}

func printTokens(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Usage: declang tokens <file>")
		return 1
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %v\n", err)
		return 1
	}

	l := lexer.New(string(data))
	for {
		tok, err := l.NextToken()
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
			return 1
		}
		fmt.Fprintf(stdout, "%-10s %-20s (line %d, col %d)\n", tok.Type, fmt.Sprintf("'%s'", tok.Literal), tok.Line, tok.Column)
		if tok.Type == token.EOF {
			return 0
		}
	}
}

func checkSuites(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: declang check <suite.yaml>...")
		return 1
	}

	failed, total := 0, 0
	for _, path := range args {
		s, err := suite.Load(path)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		results := suite.Run(s)
		for _, r := range results {
			total++
			if r.Pass {
				fmt.Fprintf(stdout, "PASS  %s\n", r.Case.Name)
				continue
			}
			failed++
			fmt.Fprintf(stdout, "FAIL  %s: %s\n", r.Case.Name, r.Reason)
		}
	}

	fmt.Fprintf(stdout, "\n%d passed, %d failed\n", total-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func serve(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env", ".env", "dotenv file to load")
	addr := fs.String("addr", "", "listen address (overrides DECLANG_ADDR)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger := log.New(stderr, "declang ", log.LstdFlags)
	srv := server.New(cfg, notify.FromConfig(cfg.SMTP), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Printf("server error: %v", err)
		return 1
	}
	return 0
}

func hashPassword(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "Usage: declang hash-password <password>")
		return 1
	}
	hash, err := auth.HashPassword(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, hash)
	return 0
}
