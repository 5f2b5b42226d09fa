package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ca-srg/kwsearch/internal/types"
)

var (
	heavyRule = strings.Repeat("=", 50)
	lightRule = strings.Repeat("-", 50)
)

var strategyTitles = map[types.Strategy]string{
	types.StrategyThread:  "threads",
	types.StrategyProcess: "processes",
}

func (c *Comparison) writeText(w io.Writer) error {
	b := bufio.NewWriter(w)

	fmt.Fprintln(b, "Search parameters:")
	fmt.Fprintf(b, "- Directory: %s\n", c.Directory)
	fmt.Fprintf(b, "- Keywords: %s\n", strings.Join(c.Keywords, ", "))
	fmt.Fprintf(b, "- Workers: %d\n", c.Workers)
	fmt.Fprintf(b, "\nFound %d files to process\n", c.Files)

	for _, run := range c.Runs {
		fmt.Fprintf(b, "\nSearch results (%s):\n", title(run.Strategy))
		fmt.Fprintln(b, heavyRule)
		fmt.Fprintf(b, "Elapsed: %.4f seconds\n", run.Elapsed.Seconds())
		writeResult(b, c.result(run))
	}

	if diff, ok := c.Difference(); ok {
		thread, _ := c.Run(types.StrategyThread)
		process, _ := c.Run(types.StrategyProcess)

		fmt.Fprintln(b, "\nTiming comparison:")
		fmt.Fprintln(b, lightRule)
		fmt.Fprintf(b, "- Threads:    %.4f seconds\n", thread.Elapsed.Seconds())
		fmt.Fprintf(b, "- Processes:  %.4f seconds\n", process.Elapsed.Seconds())
		fmt.Fprintf(b, "- Difference: %.4f seconds\n", diff.Seconds())
	}

	return b.Flush()
}

func writeResult(w io.Writer, result types.Result) {
	for _, keyword := range result.SortedKeywords() {
		files := result[keyword]
		fmt.Fprintf(w, "\nKeyword '%s':\n", keyword)
		fmt.Fprintf(w, "- Found in %d files:\n", len(files))
		for _, file := range files {
			fmt.Fprintf(w, "  • %s\n", file)
		}
	}

	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintln(w, lightRule)
	fmt.Fprintf(w, "Unique files: %d\n", result.UniqueFiles())
	fmt.Fprintf(w, "Keywords found: %d\n", len(result))

	fmt.Fprintln(w, "\nKeyword frequency:")
	counts := result.Counts()
	for _, keyword := range result.ByFrequency() {
		fmt.Fprintf(w, "- '%s': %d file(s)\n", keyword, counts[keyword])
	}
}

func title(s types.Strategy) string {
	if t, ok := strategyTitles[s]; ok {
		return t
	}
	return string(s)
}
