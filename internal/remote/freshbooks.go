package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

const (
	defaultTimeout  = 30 * time.Second
	projectPageSize = 5000
)

// Config carries everything the Freshbooks client needs. It is an
// explicit value handed in at construction; nothing reads credentials
// from ambient state.
type Config struct {
	Username string
	APIKey   string

	// BaseURL overrides the account endpoint, for tests.
	BaseURL string
	Timeout time.Duration
}

func (c Config) endpoint() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://%s.freshbooks.com/api", c.Username)
}

// Client is the Freshbooks implementation of Ledger. Calls are
// blocking and sequential; beyond the client timeout there is no retry
// layer, by the same logic that makes the sync engine resumable.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a Freshbooks ledger client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type taskEnvelope struct {
	Task struct {
		Name string `json:"name"`
	} `json:"task"`
}

type taskCreatedResponse struct {
	TaskID string `json:"task_id"`
}

func (c *Client) CreateTask(ctx context.Context, name string) (string, error) {
	var req taskEnvelope
	req.Task.Name = name

	var resp taskCreatedResponse
	if err := c.call(ctx, "task.create", req, &resp); err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", fmt.Errorf("%w: task.create returned no task id", ErrRemote)
	}
	return resp.TaskID, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	req := map[string]string{"task_id": id}
	return c.call(ctx, "task.delete", req, nil)
}

type projectListResponse struct {
	Projects []struct {
		ProjectID string   `json:"project_id"`
		Name      string   `json:"name"`
		TaskIDs   []string `json:"task_ids"`
	} `json:"projects"`
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	req := map[string]int{"per_page": projectPageSize}

	var resp projectListResponse
	if err := c.call(ctx, "project.list", req, &resp); err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(resp.Projects))
	for _, p := range resp.Projects {
		projects = append(projects, Project{ID: p.ProjectID, Name: p.Name, TaskIDs: p.TaskIDs})
	}
	return projects, nil
}

func (c *Client) UpdateProjectTasks(ctx context.Context, projectID string, taskIDs []string) error {
	req := map[string]any{
		"project": map[string]any{
			"project_id": projectID,
			"task_ids":   taskIDs,
		},
	}
	return c.call(ctx, "project.update", req, nil)
}

type timeEntryEnvelope struct {
	TimeEntry struct {
		TimeEntryID string  `json:"time_entry_id,omitempty"`
		ProjectID   string  `json:"project_id"`
		TaskID      string  `json:"task_id"`
		Hours       float64 `json:"hours"`
		Notes       string  `json:"notes"`
		Date        string  `json:"date"`
	} `json:"time_entry"`
}

type timeEntryCreatedResponse struct {
	TimeEntryID string `json:"time_entry_id"`
}

func (c *Client) CreateTimeEntry(ctx context.Context, entry TimeEntry) (string, error) {
	var req timeEntryEnvelope
	req.TimeEntry.TimeEntryID = entry.ID
	req.TimeEntry.ProjectID = entry.ProjectID
	req.TimeEntry.TaskID = entry.TaskID
	req.TimeEntry.Hours = entry.Hours
	req.TimeEntry.Notes = entry.Notes
	req.TimeEntry.Date = entry.Date

	var resp timeEntryCreatedResponse
	if err := c.call(ctx, "time_entry.create", req, &resp); err != nil {
		return "", err
	}
	if resp.TimeEntryID == "" {
		// An upsert keyed by an existing id may echo nothing back.
		return entry.ID, nil
	}
	return resp.TimeEntryID, nil
}

func (c *Client) DeleteTimeEntry(ctx context.Context, id string) error {
	req := map[string]string{"time_entry_id": id}
	return c.call(ctx, "time_entry.delete", req, nil)
}

// call posts a JSON payload to one API method and decodes the response
// into out, if out is non-nil.
func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode %s request: %v", ErrRemote, method, err)
	}

	url := fmt.Sprintf("%s/%s", c.cfg.endpoint(), method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build %s request: %v", ErrRemote, method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.APIKey, "X")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRemote, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %s: %s", ErrRemote, method, resp.Status, snippet)
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %v", ErrRemote, method, err)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrRemote, method, err)
	}
	return nil
}
