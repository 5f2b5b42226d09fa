package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ca-srg/kwsearch/internal/config"
	"github.com/ca-srg/kwsearch/internal/types"
)

const (
	promptDefaultDirectory = "./test_data"
	promptDefaultWorkers   = 4
)

// promptParameters asks for directory, keywords and worker count. An empty
// answer keeps the built-in default; a worker count that is not a plain
// number falls back to 4.
func promptParameters(in io.Reader, out io.Writer, cfg *config.Config) {
	scanner := bufio.NewScanner(in)
	ask := func(question string) string {
		fmt.Fprint(out, question)
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}

	cfg.Directory = promptDefaultDirectory
	if dir := ask(fmt.Sprintf("Directory to search (Enter for '%s'): ", promptDefaultDirectory)); dir != "" {
		cfg.Directory = dir
	}

	cfg.Keywords = types.ParseKeywords(config.DefaultKeywords)
	if keywords := types.ParseKeywords(ask("Keywords, comma-separated: ")); len(keywords) > 0 {
		cfg.Keywords = keywords
	}

	cfg.Workers = promptDefaultWorkers
	if n, ok := parseDigits(ask(fmt.Sprintf("Number of threads/processes (Enter for %d): ", promptDefaultWorkers))); ok {
		cfg.Workers = n
	}
}

// parseDigits accepts only a non-empty run of ASCII digits
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
