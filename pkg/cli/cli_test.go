package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskline/pkg/export"
	"github.com/harrisonrobin/taskline/pkg/model"
)

func setupWorkspace(t *testing.T, withRecords bool) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	recordsFile := filepath.Join(dir, "tasks.csv")
	if withRecords {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		due := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		require.NoError(t, export.SaveFile(recordsFile, []model.TaskRecord{
			{Type: model.TypeTask, TaskID: "T1", ParentID: "T1", Name: "Write", Status: "to do",
				Assignee: "Jane Doe", Priority: "high", StartDate: &start, DueDate: &due, ListName: "Alpha"},
			{Type: model.TypeSubtask, TaskID: "S1", ParentID: "T1", Name: "Draft", Status: "done",
				Assignee: "bob", Priority: "low", StartDate: &start, DueDate: &due, ListName: "Alpha"},
		}))
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	content := "data_dir: " + dir + "\nrecords_file: " + recordsFile + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))
	return cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	return out.String(), err
}

func TestTimelineCommandJSON(t *testing.T) {
	cfgPath := setupWorkspace(t, true)

	out, err := run(t, "--config", cfgPath, "timeline", "--view", "task", "--granularity", "weekly", "--json")
	require.NoError(t, err)

	var got struct {
		Rows  []model.TimelineRow `json:"rows"`
		Ticks map[string]any      `json:"ticks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "T1", got.Rows[0].TaskID)
	assert.Equal(t, float64(604800000), got.Ticks["dtick"])
}

func TestTimelineCommandRejectsUnknownView(t *testing.T) {
	cfgPath := setupWorkspace(t, true)
	_, err := run(t, "--config", cfgPath, "timeline", "--view", "gantt", "--json")
	require.Error(t, err)
}

func TestTimelineCommandNeedsRecords(t *testing.T) {
	cfgPath := setupWorkspace(t, false)
	_, err := run(t, "--config", cfgPath, "timeline", "--view", "detailed", "--json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "taskline fetch")
}

func TestOptionsCommand(t *testing.T) {
	cfgPath := setupWorkspace(t, true)

	out, err := run(t, "--config", cfgPath, "options", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"assignees":["Jane Doe","bob"],"priorities":["high","low"],"statuses":["done","to do"]}`, out)
}

func TestSetCalendar(t *testing.T) {
	cfgPath := setupWorkspace(t, true)

	out, err := run(t, "--config", cfgPath, "calendar", "--set-calendar", "Work")
	require.NoError(t, err)
	assert.Contains(t, out, "Work")

	b, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "name: Work")
	assert.Contains(t, string(b), "records_file")
}
