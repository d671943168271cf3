package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"newsletter-go/pkg/batch"
	"newsletter-go/pkg/cli/client"
	"newsletter-go/pkg/cli/logger"
	"newsletter-go/pkg/cli/output"
	"newsletter-go/pkg/cli/tui"
	"newsletter-go/pkg/config"
	"newsletter-go/pkg/models"
	"newsletter-go/pkg/render"
	"newsletter-go/pkg/tracker"
)

type App struct {
	cfg    *config.Config
	client *client.Client
	render render.Func
	log    logger.Logger

	out    io.Writer
	errOut io.Writer
	stdin  io.Reader
}

func NewApp(cfg *config.Config) *App {
	return &App{
		cfg:    cfg,
		render: render.Markdown,
		log:    logger.Get().With("component", "cli"),
		out:    os.Stdout,
		errOut: os.Stderr,
		stdin:  os.Stdin,
	}
}

// SetIO redirects the app's standard streams
func (a *App) SetIO(in io.Reader, out, errOut io.Writer) {
	a.stdin = in
	a.out = out
	a.errOut = errOut
}

// getClient returns the HTTP client, creating it if necessary
func (a *App) getClient() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	if a.cfg.CLI.BaseURL == "" {
		return nil, fmt.Errorf("base URL not configured (set cli.base_url or %s)", config.EnvBaseURL)
	}

	a.client = client.NewClient(a.cfg.CLI.BaseURL, a.cfg.CLI.APIKey, a.cfg.RequestTimeout())
	return a.client, nil
}

// readBatch analyzes a manifest file, or stdin when path is "-"
func (a *App) readBatch(path string) (batch.Result, error) {
	if path == "-" {
		return batch.ReadFrom(a.stdin)
	}
	return batch.LoadFile(path)
}

// Analyze prints the accepted, duplicate and invalid URLs of a manifest
// without contacting the backend.
func (a *App) Analyze(path string) (batch.Result, error) {
	res, err := a.readBatch(path)
	if err != nil {
		return batch.Result{}, err
	}
	fmt.Fprint(a.out, output.FormatBatchTable(res))
	return res, nil
}

// Submit sends the accepted URLs of a manifest. With wait set it tracks the
// task to completion and saves the result.
func (a *App) Submit(ctx context.Context, path string, opts models.Options, wait bool) error {
	res, err := a.readBatch(path)
	if err != nil {
		return err
	}
	if len(res.Duplicates) > 0 || len(res.Invalid) > 0 {
		fmt.Fprintln(a.errOut, output.Warning(fmt.Sprintf(
			"Skipping %d duplicate(s) and %d invalid line(s)", len(res.Duplicates), len(res.Invalid))))
	}

	apiClient, err := a.getClient()
	if err != nil {
		return err
	}

	if !wait {
		taskID, err := apiClient.Submit(ctx, res.Accepted, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, output.Success("Task submitted: "+taskID))
		return nil
	}

	presenter := newConsolePresenter(a.out)
	session := tracker.NewSession(ctx, tracker.FromClient(apiClient), presenter)
	defer session.Close()

	if _, err := session.Submit(ctx, res.Accepted, opts); err != nil {
		return err
	}
	return a.track(ctx, session.Stream(), presenter)
}

// Watch attaches to the event stream of an existing task
func (a *App) Watch(ctx context.Context, taskID string) error {
	apiClient, err := a.getClient()
	if err != nil {
		return err
	}

	presenter := newConsolePresenter(a.out)
	session := tracker.NewSession(ctx, tracker.FromClient(apiClient), presenter)
	defer session.Close()

	return a.track(ctx, session.Watch(taskID), presenter)
}

// track waits for the stream to finish and saves a completed result.
func (a *App) track(ctx context.Context, stream *tracker.Stream, presenter *consolePresenter) error {
	select {
	case <-stream.Done():
	case <-ctx.Done():
		stream.Close()
	}
	stream.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	task := stream.Task()
	switch stream.State() {
	case tracker.StateCompleted:
		artifact, ok := presenter.Result()
		if !ok {
			return fmt.Errorf("task %s completed but its result could not be fetched; retry with 'result %s'", task.ID, task.ID)
		}
		return a.saveAndSummarize(artifact)
	case tracker.StateFailed:
		if task.Error != "" {
			return fmt.Errorf("task %s failed: %s", task.ID, task.Error)
		}
		return fmt.Errorf("task %s failed", task.ID)
	default:
		return fmt.Errorf("lost the event stream for task %s; resume with 'watch %s'", task.ID, task.ID)
	}
}

// Status prints a one-shot status query
func (a *App) Status(ctx context.Context, taskID string) error {
	apiClient, err := a.getClient()
	if err != nil {
		return err
	}

	payload, err := apiClient.Status(ctx, taskID)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, output.FormatStatus(taskID, payload))
	return nil
}

// Result fetches a completed task's newsletter. With save unset the
// markdown is written to stdout.
func (a *App) Result(ctx context.Context, taskID string, save bool) error {
	apiClient, err := a.getClient()
	if err != nil {
		return err
	}

	artifact, err := apiClient.FetchResult(ctx, taskID)
	if err != nil {
		return err
	}
	if !save {
		fmt.Fprintln(a.out, artifact.Content)
		return nil
	}
	return a.saveAndSummarize(artifact)
}

func (a *App) saveAndSummarize(artifact models.ResultArtifact) error {
	paths, err := SaveArtifact(a.cfg.CLI.OutputDir, artifact, a.render)
	if err != nil {
		return err
	}
	a.log.Info("result saved", "task_id", artifact.TaskID, "files", strings.Join(paths, ","))
	fmt.Fprint(a.out, output.FormatArtifactSummary(artifact, paths...))
	return nil
}

// Upload sends a manifest to the backend for server-side analysis
func (a *App) Upload(ctx context.Context, path string) error {
	apiClient, err := a.getClient()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	resp, err := apiClient.UploadManifest(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, output.FormatBatchTable(batch.Result{
		Accepted:   resp.URLs,
		Duplicates: []string{},
		Invalid:    resp.InvalidURLs,
	}))
	return nil
}

// Health checks that the backend is reachable
func (a *App) Health(ctx context.Context) error {
	apiClient, err := a.getClient()
	if err != nil {
		return err
	}
	if err := apiClient.Health(ctx); err != nil {
		return fmt.Errorf("backend at %s is not healthy: %w", apiClient.BaseURL(), err)
	}
	fmt.Fprintln(a.out, output.Success("Backend reachable at "+apiClient.BaseURL()))
	return nil
}

// Run starts the interactive TUI, optionally prefilled from a manifest
func (a *App) Run(ctx context.Context, path string, opts models.Options) error {
	apiClient, err := a.getClient()
	if err != nil {
		return err
	}

	var initial string
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read manifest: %w", err)
		}
		initial = string(data)
	}

	err = tui.Run(ctx, tui.Options{
		Backend:       tracker.FromClient(apiClient),
		Render:        a.render,
		OutputDir:     a.cfg.CLI.OutputDir,
		SubmitOptions: opts,
		Initial:       initial,
		Save: func(artifact models.ResultArtifact) ([]string, error) {
			return SaveArtifact(a.cfg.CLI.OutputDir, artifact, a.render)
		},
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
