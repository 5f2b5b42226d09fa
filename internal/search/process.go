package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ca-srg/kwsearch/internal/ipc"
	"github.com/ca-srg/kwsearch/internal/scanner"
	"github.com/ca-srg/kwsearch/internal/types"
)

// WorkerCommand is the CLI subcommand a worker process is started with
const WorkerCommand = "worker"

const (
	shutdownTimeout       = 5 * time.Second
	defaultStatusInterval = 10 * time.Second
	statusTimeout         = time.Second
)

// Launcher builds the command for one worker process. The searcher fills in
// stdin, stdout and stderr.
type Launcher func() (*exec.Cmd, error)

// SelfLauncher re-executes the running binary with the worker subcommand
func SelfLauncher() Launcher {
	return func() (*exec.Cmd, error) {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable: %w", err)
		}
		return exec.Command(exe, WorkerCommand), nil
	}
}

// ProcessConfig configures a ProcessSearcher
type ProcessConfig struct {
	// Encoding is passed to every worker's file scanner
	Encoding string
	// Launcher defaults to SelfLauncher
	Launcher Launcher
	// StatusInterval is how often a waiting Search logs the collector's
	// progress. Zero means 10s.
	StatusInterval time.Duration
	Logger         *log.Logger
}

// ProcessSearcher runs each partition in a separate OS process. Workers share
// no memory with the engine: each sends its partial result once over a unix
// socket and the engine merges messages as they arrive.
//
// A worker that dies before submitting is not detected; Search then waits
// indefinitely for the missing message.
type ProcessSearcher struct {
	encoding       string
	launch         Launcher
	statusInterval time.Duration
	logger         *log.Logger
}

// NewProcessSearcher creates a ProcessSearcher
func NewProcessSearcher(cfg ProcessConfig) (*ProcessSearcher, error) {
	if cfg.Encoding == "" {
		cfg.Encoding = scanner.DefaultEncoding
	}
	if _, err := scanner.LookupEncoding(cfg.Encoding); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if cfg.Launcher == nil {
		cfg.Launcher = SelfLauncher()
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = defaultStatusInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[ipc] ", log.LstdFlags)
	}

	return &ProcessSearcher{
		encoding:       cfg.Encoding,
		launch:         cfg.Launcher,
		statusInterval: cfg.StatusInterval,
		logger:         cfg.Logger,
	}, nil
}

// Strategy implements Searcher
func (s *ProcessSearcher) Strategy() types.Strategy {
	return types.StrategyProcess
}

// Search implements Searcher. Besides ErrInvalidConfiguration it fails only
// when the collector socket or a worker process cannot be set up, or when a
// worker submits a result that does not fit its task.
func (s *ProcessSearcher) Search(ctx context.Context, files []string, keywords types.Keywords, workers int) (types.Result, error) {
	partitions, err := Partition(files, workers)
	if err != nil {
		return nil, err
	}

	ctx, span := startSearchSpan(ctx, types.StrategyProcess, len(files), len(keywords), workers)
	defer span.End()

	if len(files) == 0 {
		return types.Result{}, nil
	}

	start := time.Now()

	socketPath, cleanup, err := ipc.NewSocketPath()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	server, err := ipc.NewServer(ipc.ServerConfig{SocketPath: socketPath, Expected: workers}, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create result collector: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start result collector: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Printf("failed to stop result collector: %v", err)
		}
	}()

	var g errgroup.Group
	for i, partition := range partitions {
		task := types.NewWorkerTask(i, socketPath, partition, keywords, s.encoding)

		cmd, err := s.startWorker(task)
		if err != nil {
			// Workers already running still submit and exit; reap them.
			if waitErr := g.Wait(); waitErr != nil {
				s.logger.Printf("worker exited with error: %v", waitErr)
			}
			return nil, err
		}

		g.Go(func() error {
			if err := cmd.Wait(); err != nil {
				return fmt.Errorf("worker %d: %w", task.ID, err)
			}
			return nil
		})
	}

	combined, collectErr := s.collect(server, socketPath, partitions, keywords)

	if err := g.Wait(); err != nil {
		s.logger.Printf("worker exited with error after submitting: %v", err)
	}
	if collectErr != nil {
		return nil, collectErr
	}

	recordSearch(ctx, types.StrategyProcess, len(files), time.Since(start))
	return combined, nil
}

// collect is the single consumer: it takes exactly one message per worker and
// merges them in arrival order. Hits are resolved against the partition of
// the submitting worker.
func (s *ProcessSearcher) collect(server *ipc.Server, socketPath string, partitions [][]string, keywords types.Keywords) (types.Result, error) {
	ticker := time.NewTicker(s.statusInterval)
	defer ticker.Stop()

	status := ipc.NewClient(ipc.ClientConfig{SocketPath: socketPath, Timeout: statusTimeout})

	combined := types.Result{}
	var firstErr error
	for received := 0; received < len(partitions); {
		select {
		case msg := <-server.Results():
			received++
			if msg.WorkerID < 0 || msg.WorkerID >= len(partitions) {
				if firstErr == nil {
					firstErr = fmt.Errorf("result from unknown worker %d", msg.WorkerID)
				}
				continue
			}
			partial, err := decodeHits(msg.Hits, partitions[msg.WorkerID], keywords)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("worker %d: %w", msg.WorkerID, err)
				}
				continue
			}
			combined.Merge(partial)
		case <-ticker.C:
			s.logStatus(status)
		}
	}

	return combined, firstErr
}

func (s *ProcessSearcher) logStatus(client *ipc.Client) {
	st, err := client.GetStatus(context.Background())
	if err != nil {
		s.logger.Printf("failed to query result collector: %v", err)
		return
	}
	s.logger.Printf("waiting for worker results: %d/%d received", st.Received, st.Expected)
}

func (s *ProcessSearcher) startWorker(task *types.WorkerTask) (*exec.Cmd, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task for worker %d: %w", task.ID, err)
	}

	cmd, err := s.launch()
	if err != nil {
		return nil, fmt.Errorf("failed to build worker %d: %w", task.ID, err)
	}

	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker %d: %w", task.ID, err)
	}

	return cmd, nil
}
