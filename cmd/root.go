package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kwsearch",
	Short: "kwsearch - parallel keyword search over text files",
	Long: `kwsearch is a CLI tool that searches a directory of text files for a set of
keywords and compares two parallel strategies: goroutine workers sharing one
address space and worker processes reporting over a local socket.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(workerCmd)
}
