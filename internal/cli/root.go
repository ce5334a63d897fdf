package cli

import (
	"context"
	"os"
)

// Execute runs the spacetime CLI with ctx and returns an error if any
// command fails. Logging goes to stderr at info level; --verbose (-v)
// switches to debug.
//
// Example:
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}
