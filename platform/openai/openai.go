// Package openai provides an implementation of core.PlatformClient using the
// OpenAI Assistants API (assistants, threads, messages, runs and files). It
// adapts the backend's normalized domain types into the SDK's structures and
// back, including the total mapping of message content into the closed
// TextPart / ImagePart / UnknownPart union.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"mathtutor/core"
)

// Options configure the platform client adapter.
type Options struct {
	// BaseURL overrides the API endpoint (gateways, proxies, compatible
	// vendors). Empty uses the SDK default.
	BaseURL string
	// PollInterval is the run status polling cadence.
	PollInterval time.Duration
	// PageLimit bounds list calls.
	PageLimit int64
}

// Client wraps the OpenAI SDK behind the generic core.PlatformClient
// interface.
type Client struct {
	api  openai.Client
	opts Options
}

var _ core.PlatformClient = (*Client)(nil)

// New creates a platform client authenticated with apiKey.
func New(apiKey string, optFns ...func(o *Options)) *Client {
	opts := Options{PollInterval: time.Second, PageLimit: 100}
	for _, fn := range optFns {
		fn(&opts)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &Client{api: openai.NewClient(reqOpts...), opts: opts}
}

// ListAgents returns all remote agents visible to the credentials.
func (c *Client) ListAgents(ctx context.Context) ([]core.AgentDescriptor, error) {
	var out []core.AgentDescriptor
	iter := c.api.Beta.Assistants.ListAutoPaging(ctx, openai.BetaAssistantListParams{
		Limit: openai.Int(c.opts.PageLimit),
	})
	for iter.Next() {
		a := iter.Current()
		out = append(out, core.AgentDescriptor{
			RemoteID:     a.ID,
			Name:         a.Name,
			Model:        a.Model,
			Instructions: a.Instructions,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, mapErr("list agents", err)
	}
	return out, nil
}

// CreateAgent creates a remote agent from the descriptor and returns it with
// the platform-assigned id filled in.
func (c *Client) CreateAgent(ctx context.Context, desc core.AgentDescriptor) (core.AgentDescriptor, error) {
	params := openai.BetaAssistantNewParams{
		Model:        openai.ChatModel(desc.Model),
		Name:         openai.String(desc.Name),
		Instructions: openai.String(desc.Instructions),
	}
	if desc.HasTool(core.ToolCodeInterpreter) {
		params.Tools = []openai.AssistantToolUnionParam{
			{OfCodeInterpreter: &openai.CodeInterpreterToolParam{}},
		}
	}
	a, err := c.api.Beta.Assistants.New(ctx, params)
	if err != nil {
		return core.AgentDescriptor{}, mapErr("create agent", err)
	}
	desc.RemoteID = a.ID
	return desc, nil
}

// DeleteAgent removes the remote agent.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	if _, err := c.api.Beta.Assistants.Delete(ctx, agentID); err != nil {
		return mapErr("delete agent", err)
	}
	return nil
}

// CreateThread creates a fresh conversation thread and returns its id.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	t, err := c.api.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", mapErr("create thread", err)
	}
	return t.ID, nil
}

// CreateMessage appends a text message with the given role to the thread.
func (c *Client) CreateMessage(ctx context.Context, threadID, role, text string) error {
	_, err := c.api.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRole(role),
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return mapErr("create message", err)
	}
	return nil
}

// CreateAndAwaitRun starts a run of the agent on the thread and polls until a
// terminal state or ctx expiry. Terminal failure is reported through the
// returned Run, not as a Go error.
func (c *Client) CreateAndAwaitRun(ctx context.Context, threadID, agentID string) (core.Run, error) {
	run, err := c.api.Beta.Threads.Runs.NewAndPoll(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: agentID,
	}, int(c.opts.PollInterval.Milliseconds()))
	if err != nil {
		return core.Run{}, mapErr("run", err)
	}
	out := core.Run{
		ID:       run.ID,
		ThreadID: threadID,
		Status:   core.RunStatus(run.Status),
	}
	if run.LastError.Message != "" {
		out.LastError = fmt.Sprintf("%s: %s", run.LastError.Code, run.LastError.Message)
	}
	return out, nil
}

// ListMessages returns the thread's messages newest first, mapped into the
// content part union.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]core.Message, error) {
	page, err := c.api.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
		Limit: openai.Int(c.opts.PageLimit),
	})
	if err != nil {
		return nil, mapErr("list messages", err)
	}
	out := make([]core.Message, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, core.Message{
			ID:       m.ID,
			ThreadID: threadID,
			Role:     string(m.Role),
			Parts:    mapContent(m.Content),
		})
	}
	return out, nil
}

// mapContent performs the total mapping from raw SDK content into the closed
// part union. Unknown shapes are preserved as UnknownPart rather than
// coerced.
func mapContent(content []openai.MessageContentUnion) []core.Part {
	parts := make([]core.Part, 0, len(content))
	for _, c := range content {
		switch c.Type {
		case "text":
			parts = append(parts, core.TextPart{Text: c.Text.Value})
		case "image_file":
			parts = append(parts, core.ImagePart{FileID: c.ImageFile.FileID})
		default:
			parts = append(parts, core.UnknownPart{Kind: c.Type})
		}
	}
	return parts
}

// DownloadFile fetches the raw bytes of a platform-hosted file.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	res, err := c.api.Files.Content(ctx, fileID)
	if err != nil {
		return nil, mapErr("download file", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	return data, nil
}

// mapErr translates vendor API errors onto the domain sentinels so callers
// can classify stale references and auth failures without importing the SDK.
func mapErr(op string, err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", op, core.ErrNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, core.ErrNotAuthorized, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
