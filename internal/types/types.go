package types

import (
	"sort"
	"strings"
	"time"
)

// Keywords is an ordered set of search terms. Entries keep their original
// casing; matching lowercases both sides.
type Keywords []string

// NewKeywords trims the given words and drops empty and duplicate entries,
// keeping the first occurrence of each.
func NewKeywords(words ...string) Keywords {
	seen := make(map[string]struct{}, len(words))
	keywords := make(Keywords, 0, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}
	return keywords
}

// ParseKeywords splits a comma-separated keyword list
func ParseKeywords(s string) Keywords {
	return NewKeywords(strings.Split(s, ",")...)
}

// Result maps a keyword (original casing) to the files it was found in.
// A worker's partial result and an engine's combined result share this shape.
type Result map[string][]string

// Add records that keyword was found in path
func (r Result) Add(keyword, path string) {
	r[keyword] = append(r[keyword], path)
}

// Merge appends every (keyword, path) pair of other to r, preserving the
// order of other's file lists.
func (r Result) Merge(other Result) {
	for keyword, paths := range other {
		r[keyword] = append(r[keyword], paths...)
	}
}

// Counts returns the number of matching files per keyword
func (r Result) Counts() map[string]int {
	counts := make(map[string]int, len(r))
	for keyword, paths := range r {
		counts[keyword] = len(paths)
	}
	return counts
}

// UniqueFiles returns the number of distinct files matching any keyword
func (r Result) UniqueFiles() int {
	files := make(map[string]struct{})
	for _, paths := range r {
		for _, p := range paths {
			files[p] = struct{}{}
		}
	}
	return len(files)
}

// SortedKeywords returns the result's keywords in lexical order
func (r Result) SortedKeywords() []string {
	keywords := make([]string, 0, len(r))
	for keyword := range r {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)
	return keywords
}

// ByFrequency returns keywords ordered by matching file count, highest first.
// Ties are broken lexically.
func (r Result) ByFrequency() []string {
	keywords := r.SortedKeywords()
	sort.SliceStable(keywords, func(i, j int) bool {
		return len(r[keywords[i]]) > len(r[keywords[j]])
	})
	return keywords
}

// Sorted returns a copy of r with every file list sorted
func (r Result) Sorted() Result {
	out := make(Result, len(r))
	for keyword, paths := range r {
		cp := append([]string(nil), paths...)
		sort.Strings(cp)
		out[keyword] = cp
	}
	return out
}

// Strategy selects how the search engine schedules its workers
type Strategy string

const (
	StrategyThread  Strategy = "thread"
	StrategyProcess Strategy = "process"
)

// Strategies lists every supported strategy in comparison order
var Strategies = []Strategy{StrategyThread, StrategyProcess}

// WorkerTask is the job description a worker process reads from stdin.
// File names and keywords travel as raw bytes so names that are not valid
// UTF-8 survive the JSON encoding unchanged.
type WorkerTask struct {
	ID         int      `json:"id"`
	SocketPath string   `json:"socket_path"`
	Files      [][]byte `json:"files"`
	Keywords   [][]byte `json:"keywords"`
	Encoding   string   `json:"encoding"`
}

// NewWorkerTask builds the task for one partition
func NewWorkerTask(id int, socketPath string, files []string, keywords Keywords, encoding string) *WorkerTask {
	task := &WorkerTask{
		ID:         id,
		SocketPath: socketPath,
		Files:      make([][]byte, len(files)),
		Keywords:   make([][]byte, len(keywords)),
		Encoding:   encoding,
	}
	for i, f := range files {
		task.Files[i] = []byte(f)
	}
	for i, k := range keywords {
		task.Keywords[i] = []byte(k)
	}
	return task
}

// FileList returns the task's files in partition order
func (t *WorkerTask) FileList() []string {
	files := make([]string, len(t.Files))
	for i, f := range t.Files {
		files[i] = string(f)
	}
	return files
}

// KeywordList returns the task's keywords in order
func (t *WorkerTask) KeywordList() Keywords {
	keywords := make(Keywords, len(t.Keywords))
	for i, k := range t.Keywords {
		keywords[i] = string(k)
	}
	return keywords
}

// RunRecord is one strategy's timing in a stored comparison run
type RunRecord struct {
	ID          int64         `json:"id"`
	RunAt       time.Time     `json:"run_at"`
	Directory   string        `json:"directory"`
	Strategy    Strategy      `json:"strategy"`
	Workers     int           `json:"workers"`
	Files       int           `json:"files"`
	KeywordsHit int           `json:"keywords_hit"`
	Duration    time.Duration `json:"duration"`
	ReportPath  string        `json:"report_path,omitempty"`
}
