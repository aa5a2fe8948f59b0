// Command claude-guard evaluates one Claude Code hook event read from stdin.
//
// Exit status 0 lets the action proceed, 2 blocks it. Messages for the user
// go to stderr; context for the agent goes to stdout as JSON.
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
