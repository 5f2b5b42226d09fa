package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ca-srg/kwsearch/internal/ipc"
	"github.com/ca-srg/kwsearch/internal/scanner"
	"github.com/ca-srg/kwsearch/internal/types"
)

// RunWorker is the body of a worker process: it reads a WorkerTask from r,
// scans the task's files and submits the partial result to the collector
// socket named in the task.
func RunWorker(ctx context.Context, r io.Reader) error {
	var task types.WorkerTask
	if err := json.NewDecoder(r).Decode(&task); err != nil {
		return fmt.Errorf("failed to decode worker task: %w", err)
	}
	if task.SocketPath == "" {
		return fmt.Errorf("worker task %d has no collector socket", task.ID)
	}

	log.SetPrefix(fmt.Sprintf("[worker %d] ", task.ID))

	// Extensions were filtered upstream; the worker only reads the given paths.
	fileScanner, err := scanner.NewFileScanner(nil, task.Encoding)
	if err != nil {
		return err
	}

	files := task.FileList()
	keywords := task.KeywordList()
	partial := scanPartition(fileScanner, task.ID, files, keywords)

	hits, err := encodeHits(partial, files, keywords)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	client := ipc.NewClient(ipc.ClientConfig{SocketPath: task.SocketPath})
	if _, err := client.SubmitResult(ctx, &ipc.SubmitParams{
		WorkerID:     task.ID,
		PID:          os.Getpid(),
		FilesScanned: len(files),
		Hits:         hits,
	}); err != nil {
		return fmt.Errorf("failed to submit result: %w", err)
	}

	return nil
}
