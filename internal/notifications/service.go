package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dccpipe/internal/config"
	"dccpipe/internal/jobs"
)

const userAgent = "dccpipe/0.1"

// Notifier delivers job outcomes.
type Notifier interface {
	JobFinished(ctx context.Context, job *jobs.Job) error
	Test(ctx context.Context) error
}

// New builds an ntfy notifier when cfg names a topic, otherwise a no-op.
func New(cfg *config.Config) Notifier {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noop{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfy{
		endpoint: strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether n actually sends anything.
func Enabled(n Notifier) bool {
	_, isNoop := n.(noop)
	return n != nil && !isNoop
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfy struct {
	endpoint string
	client   *http.Client
}

func (n *ntfy) JobFinished(ctx context.Context, job *jobs.Job) error {
	if job == nil || !job.Status.Terminal() {
		return nil
	}
	return n.send(ctx, jobMessage(job))
}

func (n *ntfy) Test(ctx context.Context) error {
	return n.send(ctx, message{
		title:    "dccpipe - Test",
		body:     "Notification system test",
		tags:     []string{"dccpipe", "test"},
		priority: "low",
	})
}

func jobMessage(job *jobs.Job) message {
	if job.Status == jobs.StatusFailed {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s", job.Kind, job.Project)
		if job.RenderVersion != "" {
			fmt.Fprintf(&b, " %s (%d/%d frames)", job.RenderVersion, job.FramesDone, job.FramesTotal)
		}
		if job.ErrorMessage != "" {
			fmt.Fprintf(&b, " failed: %s", job.ErrorMessage)
		} else {
			b.WriteString(" failed")
		}
		return message{
			title:    "dccpipe - Job Failed",
			body:     b.String(),
			tags:     []string{"dccpipe", "error", "alert"},
			priority: "high",
		}
	}

	switch job.Kind {
	case jobs.KindCreateProject:
		return message{
			title: "dccpipe - Project Created",
			body:  fmt.Sprintf("Project created: %s", job.Project),
			tags:  []string{"dccpipe", "project"},
		}
	default:
		body := fmt.Sprintf("%s %s %s: %d/%d frames", job.Project, job.Shot, job.RenderVersion, job.FramesDone, job.FramesTotal)
		return message{
			title: "dccpipe - Render Complete",
			body:  strings.Join(strings.Fields(body), " "),
			tags:  []string{"dccpipe", "render", string(job.Kind)},
		}
	}
}

func (n *ntfy) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noop struct{}

func (noop) JobFinished(context.Context, *jobs.Job) error { return nil }
func (noop) Test(context.Context) error                   { return nil }
