package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/logvault/app"
	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/core/logfile"
)

var filesCmd = &cobra.Command{
	Use:   "files <category>",
	Short: "List the log files of a category, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiles,
}

var readCmd = &cobra.Command{
	Use:   "read <path>",
	Short: "Print the rows of a log file, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

func init() {
	rootCmd.AddCommand(filesCmd, readCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	c, err := category.Parse(args[0])
	if err != nil {
		return err
	}
	return withService(cmd.Context(), func(svc *app.Service) error {
		files, err := svc.Reader.GetLogFiles(c)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "NAME\tMODIFIED\tSIZE")
		for _, f := range files {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", f.FileName, logfile.FormatTimestamp(f.LastModified), f.DisplaySizeKB)
		}
		return tw.Flush()
	})
}

func runRead(cmd *cobra.Command, args []string) error {
	return withService(cmd.Context(), func(svc *app.Service) error {
		entries, err := svc.Reader.ReadLogFile(args[0])
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, e := range entries {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", logfile.FormatTimestamp(e.Timestamp), e.Level, e.Source, e.Message)
		}
		return tw.Flush()
	})
}
