// Package workspace walks the team → space → folder → list → task hierarchy
// and flattens it into task records.
package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harrisonrobin/taskline/pkg/auth"
	"github.com/harrisonrobin/taskline/pkg/clickup"
	"github.com/harrisonrobin/taskline/pkg/logging"
	"github.com/harrisonrobin/taskline/pkg/model"
)

// API is the subset of the remote API the fetcher walks.
type API interface {
	Teams(ctx context.Context) ([]clickup.Team, error)
	Spaces(ctx context.Context, teamID string) ([]clickup.Space, error)
	Folders(ctx context.Context, spaceID string) ([]clickup.Folder, error)
	Lists(ctx context.Context, folderID string) ([]clickup.List, error)
	Tasks(ctx context.Context, listID string, page int) (*clickup.TasksPage, error)
}

// Level names the collection whose retrieval failed.
type Level string

const (
	LevelSpaces  Level = "spaces"
	LevelFolders Level = "folders"
	LevelLists   Level = "lists"
	LevelTasks   Level = "tasks"
)

// Skip records a branch that was left out of the result.
type Skip struct {
	Level Level
	// OwnerID and OwnerName identify the team, space, folder or list whose
	// children could not be retrieved.
	OwnerID   string
	OwnerName string
	Path      Path
	Err       error
}

func (s Skip) String() string {
	return fmt.Sprintf("%s of %q (%s): %v", s.Level, s.OwnerName, s.OwnerID, s.Err)
}

// ListRef is a list together with its grouping path.
type ListRef struct {
	ID   string
	Path Path
}

// Result is the outcome of a full traversal.
type Result struct {
	Records []model.TaskRecord
	Skipped []Skip
}

// Fetcher walks the workspace hierarchy sequentially.
type Fetcher struct {
	api      API
	maxPages int
	log      zerolog.Logger
}

// NewFetcher creates a fetcher. maxPages bounds task pagination per list; 0 is unbounded.
func NewFetcher(api API, maxPages int) *Fetcher {
	return &Fetcher{
		api:      api,
		maxPages: maxPages,
		log:      logging.Component("fetch"),
	}
}

// branch is the outcome of retrieving one collection: its items, the reason
// it was skipped, or an error that ends the whole walk.
type branch[T any] struct {
	items []T
	skip  *Skip
	err   error
}

func fetchBranch[T any](level Level, ownerID, ownerName string, path Path, fn func() ([]T, error)) branch[T] {
	items, err := fn()
	if err == nil {
		return branch[T]{items: items}
	}
	// Without a credential no sibling can succeed either.
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		return branch[T]{err: fmt.Errorf("failed to fetch %s of %q: %w", level, ownerName, err)}
	}
	return branch[T]{skip: &Skip{Level: level, OwnerID: ownerID, OwnerName: ownerName, Path: path, Err: err}}
}

// accumulator collects skipped branches while the walk continues.
type accumulator struct {
	skipped []Skip
	log     zerolog.Logger
}

// keep returns the branch's items. ok is false when the branch was skipped;
// a non-nil error aborts the walk.
func keep[T any](acc *accumulator, b branch[T]) (items []T, ok bool, err error) {
	if b.err != nil {
		return nil, false, b.err
	}
	if b.skip != nil {
		acc.log.Warn().
			Str("collection", string(b.skip.Level)).
			Str("owner_id", b.skip.OwnerID).
			Str("owner", b.skip.OwnerName).
			Err(b.skip.Err).
			Msg("skipping branch")
		acc.skipped = append(acc.skipped, *b.skip)
		return nil, false, nil
	}
	return b.items, true, nil
}

// Lists walks teams, spaces and folders and returns every list reached.
// A failure to list teams or an auth failure aborts; other failures are skipped.
func (f *Fetcher) Lists(ctx context.Context) ([]ListRef, []Skip, error) {
	acc := &accumulator{log: f.log}
	refs, err := f.walkLists(ctx, acc)
	if err != nil {
		return nil, nil, err
	}
	return refs, acc.skipped, nil
}

// Teams returns the workspaces visible to the token.
func (f *Fetcher) Teams(ctx context.Context) ([]clickup.Team, error) {
	teams, err := f.api.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}
	return teams, nil
}

// FetchAllTasks walks the whole hierarchy and returns every task and subtask
// as a normalized record, in traversal order.
func (f *Fetcher) FetchAllTasks(ctx context.Context) (*Result, error) {
	acc := &accumulator{log: f.log}
	lists, err := f.walkLists(ctx, acc)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, ref := range lists {
		tasks, ok, err := keep(acc, fetchBranch(LevelTasks, ref.ID, ref.Path.List, ref.Path, func() ([]clickup.Task, error) {
			return f.listTasks(ctx, ref.ID)
		}))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, task := range tasks {
			res.Records = append(res.Records, Normalize(task, ref.Path))
		}
		f.log.Debug().Str("list", ref.Path.List).Int("tasks", len(tasks)).Msg("list fetched")
	}
	res.Skipped = acc.skipped

	f.log.Info().
		Int("records", len(res.Records)).
		Int("skipped", len(res.Skipped)).
		Msg("workspace fetched")
	return res, nil
}

func (f *Fetcher) walkLists(ctx context.Context, acc *accumulator) ([]ListRef, error) {
	teams, err := f.Teams(ctx)
	if err != nil {
		return nil, err
	}

	var refs []ListRef
	for _, team := range teams {
		teamPath := Path{Team: team.Name}
		spaces, ok, err := keep(acc, fetchBranch(LevelSpaces, team.ID, team.Name, teamPath, func() ([]clickup.Space, error) {
			return f.api.Spaces(ctx, team.ID)
		}))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		for _, space := range spaces {
			spacePath := teamPath
			spacePath.Space = space.Name
			folders, ok, err := keep(acc, fetchBranch(LevelFolders, space.ID, space.Name, spacePath, func() ([]clickup.Folder, error) {
				return f.api.Folders(ctx, space.ID)
			}))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			for _, folder := range folders {
				folderPath := spacePath
				folderPath.Folder = folder.Name
				lists, ok, err := keep(acc, fetchBranch(LevelLists, folder.ID, folder.Name, folderPath, func() ([]clickup.List, error) {
					return f.api.Lists(ctx, folder.ID)
				}))
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}

				for _, list := range lists {
					listPath := folderPath
					listPath.List = list.Name
					refs = append(refs, ListRef{ID: list.ID, Path: listPath})
				}
			}
		}
	}
	return refs, nil
}

// listTasks pages through a list's tasks. A failure on any page fails the
// whole list so a list is never half-present in the result.
func (f *Fetcher) listTasks(ctx context.Context, listID string) ([]clickup.Task, error) {
	var tasks []clickup.Task
	for page := 0; ; page++ {
		resp, err := f.api.Tasks(ctx, listID, page)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, resp.Tasks...)
		if !resp.More() || (f.maxPages > 0 && page+1 >= f.maxPages) {
			return tasks, nil
		}
	}
}
