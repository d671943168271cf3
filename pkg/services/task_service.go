package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"newsletter-go/pkg/cli/logger"
	"newsletter-go/pkg/models"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskNotCompleted = errors.New("task not completed")
)

// TaskOptions configures the simulated pipeline
type TaskOptions struct {
	// StepInterval is the time spent on each URL
	StepInterval time.Duration
	// FailMarker makes any URL containing it fail; empty disables failures
	FailMarker string
}

// TaskService keeps generation tasks in memory and advances them on a
// timer, one URL per step.
type TaskService struct {
	opts TaskOptions
	log  logger.Logger
	now  func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.RWMutex
	tasks map[string]*taskRecord
}

type taskRecord struct {
	id        string
	urls      []string
	options   models.Options
	status    models.TaskStatus
	progress  models.Progress
	err       string
	createdAt time.Time
	result    *models.ResultResponse
	// changed is closed and replaced whenever the record is updated
	changed chan struct{}
}

// NewTaskService creates a service. Close stops every running task.
func NewTaskService(opts TaskOptions) *TaskService {
	if opts.StepInterval <= 0 {
		opts.StepInterval = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskService{
		opts:   opts,
		log:    logger.Get().With("component", "task_service"),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[string]*taskRecord),
	}
}

// Create registers a task for urls and starts processing it
func (s *TaskService) Create(urls []string, opts models.Options) (models.GenerateResponse, error) {
	if len(urls) == 0 {
		return models.GenerateResponse{}, fmt.Errorf("at least one URL is required")
	}

	rec := &taskRecord{
		id:        uuid.NewString(),
		urls:      append([]string(nil), urls...),
		options:   opts,
		status:    models.TaskStatusPending,
		progress:  models.Progress{TotalURLs: len(urls)},
		createdAt: s.now(),
		changed:   make(chan struct{}),
	}

	s.mu.Lock()
	s.tasks[rec.id] = rec
	s.mu.Unlock()

	s.log.Info("task created", "task_id", rec.id, "urls", len(urls))

	s.wg.Add(1)
	go s.process(rec.id)

	return models.GenerateResponse{TaskID: rec.id, Status: models.TaskStatusPending}, nil
}

// Status returns the current status payload of a task
func (s *TaskService) Status(taskID string) (models.StatusPayload, error) {
	payload, _, err := s.Watch(taskID)
	return payload, err
}

// Watch returns the current status and a channel closed on the next change
func (s *TaskService) Watch(taskID string) (models.StatusPayload, <-chan struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tasks[taskID]
	if !ok {
		return models.StatusPayload{}, nil, ErrTaskNotFound
	}
	return rec.payload(), rec.changed, nil
}

// Result returns the generated newsletter of a completed task
func (s *TaskService) Result(taskID string) (models.ResultResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tasks[taskID]
	if !ok {
		return models.ResultResponse{}, ErrTaskNotFound
	}
	if rec.status != models.TaskStatusCompleted || rec.result == nil {
		return models.ResultResponse{}, ErrTaskNotCompleted
	}
	return *rec.result, nil
}

// Close stops all running tasks and waits for them
func (s *TaskService) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *TaskService) process(taskID string) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.StepInterval)
	defer ticker.Stop()

	s.update(taskID, func(rec *taskRecord) {
		rec.status = models.TaskStatusProcessing
	})

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}

		done := false
		s.update(taskID, func(rec *taskRecord) {
			next := rec.urls[rec.progress.Processed]
			if s.opts.FailMarker != "" && strings.Contains(next, s.opts.FailMarker) {
				rec.progress.Failed++
				s.log.Warn("url failed", "task_id", taskID, "url", next)
			}
			rec.progress.Processed++

			if rec.progress.Processed < rec.progress.TotalURLs {
				return
			}
			done = true
			if rec.progress.Failed == rec.progress.TotalURLs {
				rec.status = models.TaskStatusFailed
				rec.err = fmt.Sprintf("All %d URLs failed to process", rec.progress.TotalURLs)
				return
			}
			res := s.buildResult(rec)
			rec.result = &res
			rec.status = models.TaskStatusCompleted
		})
		if done {
			s.log.Info("task finished", "task_id", taskID)
			return
		}
	}
}

func (s *TaskService) update(taskID string, fn func(rec *taskRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[taskID]
	if !ok {
		return
	}
	fn(rec)
	close(rec.changed)
	rec.changed = make(chan struct{})
}

// buildResult groups the successful URLs by host, one topic per host.
func (s *TaskService) buildResult(rec *taskRecord) models.ResultResponse {
	var topics []string
	byTopic := make(map[string][]string)
	for _, u := range rec.urls {
		if s.opts.FailMarker != "" && strings.Contains(u, s.opts.FailMarker) {
			continue
		}
		topic := topicOf(u)
		if _, ok := byTopic[topic]; !ok {
			topics = append(topics, topic)
		}
		byTopic[topic] = append(byTopic[topic], u)
	}

	includeSubtopics := rec.options.IncludeSubtopics == nil || *rec.options.IncludeSubtopics
	maxLen := 0
	if rec.options.MaxRecommendationLength != nil {
		maxLen = *rec.options.MaxRecommendationLength
	}

	var b strings.Builder
	generatedAt := s.now().UTC()
	fmt.Fprintf(&b, "# Newsletter\n\n_Generated %s from %d sources._\n", generatedAt.Format("2006-01-02"), len(rec.urls))
	for _, topic := range topics {
		fmt.Fprintf(&b, "\n## %s\n\n", topic)
		fmt.Fprintf(&b, "%s\n", truncate(fmt.Sprintf("Recommended reading from %s, %d article(s).", topic, len(byTopic[topic])), maxLen))
		if !includeSubtopics {
			continue
		}
		b.WriteString("\n")
		for _, u := range byTopic[topic] {
			fmt.Fprintf(&b, "- [%s](%s)\n", u, u)
		}
	}

	total := rec.progress.Processed - rec.progress.Failed
	return models.ResultResponse{
		TaskID:          rec.id,
		Status:          models.TaskStatusCompleted,
		MarkdownContent: b.String(),
		Metadata: &models.WireResultMetadata{
			GeneratedAt:    &generatedAt,
			TotalProcessed: &total,
			Topics:         topics,
		},
	}
}

func (r *taskRecord) payload() models.StatusPayload {
	progress := r.progress
	return models.StatusPayload{
		TaskID:   r.id,
		Status:   r.status,
		Progress: &progress,
		Error:    r.err,
	}
}

func topicOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "misc"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
