package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/logvault/app"
	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/writer"
)

var serveStdin bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the writer, metrics endpoint and catalog watcher",
	Long: `Run the log lifecycle service until interrupted.

With --stdin every input line "<Category> <INFO|WARN|ERROR> <message>" is
queued as an entry, which makes the service usable from shell pipelines.`,
	RunE: runServe,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().BoolVar(&serveStdin, "stdin", false, "queue entries read from standard input")
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withService(ctx, func(svc *app.Service) error {
		if serveStdin {
			go func() {
				if err := pump(bufio.NewScanner(cmd.InOrStdin()), svc.Writer); err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "stdin: %v\n", err)
				}
				stop()
			}()
		}
		return svc.Run(ctx)
	})
}

// pump queues one entry per scanned line. Lines without a known category and
// level are skipped.
func pump(sc *bufio.Scanner, w *writer.Writer) error {
	for sc.Scan() {
		fields := strings.SplitN(strings.TrimSpace(sc.Text()), " ", 3)
		if len(fields) < 3 {
			continue
		}
		c, err := category.Parse(fields[0])
		if err != nil {
			continue
		}
		switch strings.ToUpper(fields[1]) {
		case "INFO":
			w.LogInfo(fields[2], c)
		case "WARN", "WARNING":
			w.LogWarning(fields[2], c)
		case "ERROR":
			w.LogError(fields[2], c)
		}
	}
	return sc.Err()
}
