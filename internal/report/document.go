package report

import (
	"time"

	"github.com/ca-srg/kwsearch/internal/types"
)

// document is the structured form of a comparison shared by the json and
// yaml writers
type document struct {
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Directory   string         `json:"directory" yaml:"directory"`
	Keywords    []string       `json:"keywords" yaml:"keywords"`
	Workers     int            `json:"workers" yaml:"workers"`
	Files       int            `json:"files" yaml:"files"`
	Runs        []runDocument  `json:"runs" yaml:"runs"`
	Comparison  *timingSummary `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

type runDocument struct {
	Strategy       types.Strategy      `json:"strategy" yaml:"strategy"`
	ElapsedSeconds float64             `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Results        map[string][]string `json:"results" yaml:"results"`
	UniqueFiles    int                 `json:"unique_files" yaml:"unique_files"`
	KeywordsFound  int                 `json:"keywords_found" yaml:"keywords_found"`
	Frequency      []keywordCount      `json:"frequency" yaml:"frequency"`
}

type keywordCount struct {
	Keyword string `json:"keyword" yaml:"keyword"`
	Files   int    `json:"files" yaml:"files"`
}

type timingSummary struct {
	ThreadSeconds     float64 `json:"thread_seconds" yaml:"thread_seconds"`
	ProcessSeconds    float64 `json:"process_seconds" yaml:"process_seconds"`
	DifferenceSeconds float64 `json:"difference_seconds" yaml:"difference_seconds"`
}

func (c *Comparison) document() *document {
	doc := &document{
		GeneratedAt: c.GeneratedAt,
		Directory:   c.Directory,
		Keywords:    append([]string{}, c.Keywords...),
		Workers:     c.Workers,
		Files:       c.Files,
		Runs:        make([]runDocument, 0, len(c.Runs)),
	}

	for _, run := range c.Runs {
		result := c.result(run)
		rd := runDocument{
			Strategy:       run.Strategy,
			ElapsedSeconds: run.Elapsed.Seconds(),
			Results:        map[string][]string(result),
			UniqueFiles:    result.UniqueFiles(),
			KeywordsFound:  len(result),
			Frequency:      []keywordCount{},
		}
		if rd.Results == nil {
			rd.Results = map[string][]string{}
		}
		counts := result.Counts()
		for _, keyword := range result.ByFrequency() {
			rd.Frequency = append(rd.Frequency, keywordCount{Keyword: keyword, Files: counts[keyword]})
		}
		doc.Runs = append(doc.Runs, rd)
	}

	if diff, ok := c.Difference(); ok {
		thread, _ := c.Run(types.StrategyThread)
		process, _ := c.Run(types.StrategyProcess)
		doc.Comparison = &timingSummary{
			ThreadSeconds:     thread.Elapsed.Seconds(),
			ProcessSeconds:    process.Elapsed.Seconds(),
			DifferenceSeconds: diff.Seconds(),
		}
	}

	return doc
}
