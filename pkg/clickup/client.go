package clickup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response body is kept on RemoteError.
const maxErrorBody = 4096

// TokenSource supplies the access token sent with every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RemoteError is returned when the API answers with a non-success status.
type RemoteError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("clickup API error (%d) for %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client is a minimal ClickUp API v2 client covering the workspace hierarchy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

// NewClient creates a new ClickUp client. A nil httpClient gets a client with the given timeout.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
}

// Teams returns the workspaces the token can see.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	var resp teamsResponse
	if err := c.get(ctx, "/team", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

// Spaces returns the spaces of a team.
func (c *Client) Spaces(ctx context.Context, teamID string) ([]Space, error) {
	var resp spacesResponse
	if err := c.get(ctx, "/team/"+url.PathEscape(teamID)+"/space", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Spaces, nil
}

// Folders returns the folders of a space.
func (c *Client) Folders(ctx context.Context, spaceID string) ([]Folder, error) {
	var resp foldersResponse
	if err := c.get(ctx, "/space/"+url.PathEscape(spaceID)+"/folder", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Folders, nil
}

// Lists returns the lists of a folder.
func (c *Client) Lists(ctx context.Context, folderID string) ([]List, error) {
	var resp listsResponse
	if err := c.get(ctx, "/folder/"+url.PathEscape(folderID)+"/list", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lists, nil
}

// Tasks returns one page of a list's tasks, subtasks and closed tasks included.
func (c *Client) Tasks(ctx context.Context, listID string, page int) (*TasksPage, error) {
	query := url.Values{}
	query.Set("subtasks", "true")
	query.Set("include_closed", "true")
	query.Set("page", strconv.Itoa(page))

	var resp TasksPage
	if err := c.get(ctx, "/list/"+url.PathEscape(listID)+"/task", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{StatusCode: resp.StatusCode, Body: string(body), URL: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
