package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskline/pkg/auth"
	"github.com/harrisonrobin/taskline/pkg/clickup"
	"github.com/harrisonrobin/taskline/pkg/model"
)

type fakeAPI struct {
	teams    []clickup.Team
	teamsErr error
	spaces   map[string][]clickup.Space
	folders  map[string][]clickup.Folder
	lists    map[string][]clickup.List
	pages    map[string][]clickup.TasksPage
	failing  map[string]error
	calls    []string
}

func (f *fakeAPI) fail(id string) error {
	if f.failing == nil {
		return nil
	}
	return f.failing[id]
}

func (f *fakeAPI) Teams(context.Context) ([]clickup.Team, error) {
	f.calls = append(f.calls, "teams")
	return f.teams, f.teamsErr
}

func (f *fakeAPI) Spaces(_ context.Context, id string) ([]clickup.Space, error) {
	f.calls = append(f.calls, "spaces:"+id)
	return f.spaces[id], f.fail(id)
}

func (f *fakeAPI) Folders(_ context.Context, id string) ([]clickup.Folder, error) {
	f.calls = append(f.calls, "folders:"+id)
	return f.folders[id], f.fail(id)
}

func (f *fakeAPI) Lists(_ context.Context, id string) ([]clickup.List, error) {
	f.calls = append(f.calls, "lists:"+id)
	return f.lists[id], f.fail(id)
}

func (f *fakeAPI) Tasks(_ context.Context, id string, page int) (*clickup.TasksPage, error) {
	f.calls = append(f.calls, "tasks:"+id)
	if err := f.fail(id); err != nil {
		return nil, err
	}
	pages := f.pages[id]
	if page >= len(pages) {
		return &clickup.TasksPage{}, nil
	}
	p := pages[page]
	return &p, nil
}

func lastPage(v bool) *bool { return &v }

func newWorkspace() *fakeAPI {
	return &fakeAPI{
		teams: []clickup.Team{{ID: "team1", Name: "Acme"}},
		spaces: map[string][]clickup.Space{
			"team1": {{ID: "sp1", Name: "Eng"}, {ID: "sp2", Name: "Ops"}},
		},
		folders: map[string][]clickup.Folder{
			"sp1": {{ID: "f1", Name: "Q1"}, {ID: "f2", Name: "Broken"}},
			"sp2": {{ID: "f3", Name: "Infra"}},
		},
		lists: map[string][]clickup.List{
			"f1": {{ID: "l1", Name: "Alpha"}, {ID: "l2", Name: "Beta"}},
			"f3": {{ID: "l3", Name: "Gamma"}},
		},
		pages: map[string][]clickup.TasksPage{
			"l1": {{Tasks: []clickup.Task{{ID: "T1", Name: "Write"}, {ID: "S1", Name: "Sub", Parent: []byte(`"T1"`)}}}},
			"l2": {{Tasks: []clickup.Task{{ID: "T2", Name: "Review"}}}},
			"l3": {{Tasks: []clickup.Task{{ID: "T3", Name: "Deploy"}}}},
		},
	}
}

func TestFetchAllTasksWalksDepthFirst(t *testing.T) {
	api := newWorkspace()
	res, err := NewFetcher(api, 0).FetchAllTasks(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Records))
	for _, r := range res.Records {
		ids = append(ids, r.TaskID)
	}
	assert.Equal(t, []string{"T1", "S1", "T2", "T3"}, ids)
	assert.Empty(t, res.Skipped)

	assert.Equal(t, model.TypeSubtask, res.Records[1].Type)
	assert.Equal(t, "T1", res.Records[1].ParentID)
	assert.Equal(t, "Gamma", res.Records[3].ListName)
	assert.Equal(t, "Infra", res.Records[3].FolderName)
	assert.Equal(t, "Ops", res.Records[3].SpaceName)
	assert.Equal(t, "Acme", res.Records[3].TeamName)
}

func TestFetchAllTasksTeamFailureAborts(t *testing.T) {
	api := newWorkspace()
	api.teamsErr = &clickup.RemoteError{StatusCode: http.StatusUnauthorized, Body: "Token invalid"}

	res, err := NewFetcher(api, 0).FetchAllTasks(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)

	var remoteErr *clickup.RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
	assert.Equal(t, []string{"teams"}, api.calls)
}

func TestFetchAllTasksSkipsDeeperFailures(t *testing.T) {
	api := newWorkspace()
	api.failing = map[string]error{
		"f2": &clickup.RemoteError{StatusCode: http.StatusNotFound, Body: "gone"},
		"l2": errors.New("connection reset"),
	}

	res, err := NewFetcher(api, 0).FetchAllTasks(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Records))
	for _, r := range res.Records {
		ids = append(ids, r.TaskID)
	}
	assert.Equal(t, []string{"T1", "S1", "T3"}, ids)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, LevelLists, res.Skipped[0].Level)
	assert.Equal(t, "Broken", res.Skipped[0].OwnerName)
	assert.Equal(t, LevelTasks, res.Skipped[1].Level)
	assert.Equal(t, "Beta", res.Skipped[1].OwnerName)
	assert.Equal(t, "Q1", res.Skipped[1].Path.Folder)
}

func TestFetchAllTasksAuthFailureAborts(t *testing.T) {
	tests := []struct {
		name    string
		failing string
		calls   []string
	}{
		{"spaces", "team1", []string{"teams", "spaces:team1"}},
		{"tasks", "l1", []string{"teams", "spaces:team1", "folders:sp1", "lists:f1", "lists:f2", "folders:sp2", "lists:f3", "tasks:l1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newWorkspace()
			api.failing = map[string]error{
				tt.failing: &auth.AuthError{Op: "refresh token", Err: errors.New("invalid_grant")},
			}

			res, err := NewFetcher(api, 0).FetchAllTasks(context.Background())
			require.Error(t, err)
			assert.Nil(t, res)

			var authErr *auth.AuthError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, "refresh token", authErr.Op)
			assert.Equal(t, tt.calls, api.calls)
		})
	}
}

func TestSkipIsLoggedAtWarnLevel(t *testing.T) {
	api := newWorkspace()
	api.failing = map[string]error{"f2": errors.New("boom")}

	var buf bytes.Buffer
	f := NewFetcher(api, 0)
	f.log = zerolog.New(&buf)

	_, err := f.FetchAllTasks(context.Background())
	require.NoError(t, err)

	var skipLine map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		if line["message"] == "skipping branch" {
			skipLine = line
		}
	}
	require.NotNil(t, skipLine)
	assert.Equal(t, "warn", skipLine["level"])
	assert.Equal(t, "lists", skipLine["collection"])
	assert.Equal(t, "Broken", skipLine["owner"])
}

func TestFetchAllTasksSkipsFailedSpace(t *testing.T) {
	api := newWorkspace()
	api.failing = map[string]error{"sp1": errors.New("boom")}

	res, err := NewFetcher(api, 0).FetchAllTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "T3", res.Records[0].TaskID)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, LevelFolders, res.Skipped[0].Level)
}

func TestFetchAllTasksPaging(t *testing.T) {
	api := newWorkspace()
	api.pages["l1"] = []clickup.TasksPage{
		{Tasks: []clickup.Task{{ID: "P0"}}, LastPage: lastPage(false)},
		{Tasks: []clickup.Task{{ID: "P1"}}, LastPage: lastPage(false)},
		{Tasks: []clickup.Task{{ID: "P2"}}, LastPage: lastPage(true)},
	}

	res, err := NewFetcher(api, 0).FetchAllTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "P0", res.Records[0].TaskID)
	assert.Equal(t, "P2", res.Records[2].TaskID)
	assert.Len(t, res.Records, 5)

	bounded, err := NewFetcher(newWorkspaceWithPages(api.pages), 2).FetchAllTasks(context.Background())
	require.NoError(t, err)
	assert.Len(t, bounded.Records, 4)
}

func newWorkspaceWithPages(pages map[string][]clickup.TasksPage) *fakeAPI {
	api := newWorkspace()
	api.pages = pages
	return api
}

func TestListsCollectsPaths(t *testing.T) {
	refs, skipped, err := NewFetcher(newWorkspace(), 0).Lists(context.Background())
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, refs, 3)
	assert.Equal(t, ListRef{ID: "l3", Path: Path{Team: "Acme", Space: "Ops", Folder: "Infra", List: "Gamma"}}, refs[2])
}
