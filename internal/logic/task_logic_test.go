package logic

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/blues/civicops/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveBulkTasks_ReplacesListAndBuildsHierarchy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(newTestClock())

	s, err := svc.Schedules.CreateSchedule(ctx, "proj-X", CreateScheduleInput{SelectedPhases: json.RawMessage(onePhaseTwoTasks)})
	require.NoError(t, err)

	parent := "task1"
	n, err := svc.Tasks.SaveBulkTasks(ctx, s.Id, []*model.TaskModel{
		{Id: "task1", Name: "Survey"},
		{Id: "task2", Name: "Drawings"},
		{Id: "subtask", Name: "Benchmarks", ParentTaskId: &parent},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tasks, err := svc.Tasks.GetScheduleTasks(ctx, s.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"task1", "task2", "subtask"}, taskIDs(tasks))

	h, err := svc.Tasks.GetTaskHierarchy(ctx, s.Id)
	require.NoError(t, err)
	require.Len(t, h.Children, 1)
	assert.Equal(t, []string{"subtask"}, taskIDs(h.Children["task1"]))
	assert.Equal(t, []string{"task1", "task2"}, taskIDs(h.Roots))
	assert.Empty(t, h.Orphaned)
}

func TestSaveBulkTasks_NormalizesTasks(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	svc, _ := newTestServices(clock)

	s, err := svc.Schedules.CreateSchedule(ctx, "proj-X", CreateScheduleInput{})
	require.NoError(t, err)

	parent := "root"
	_, err = svc.Tasks.SaveBulkTasks(ctx, s.Id, []*model.TaskModel{
		{Id: "root", Name: "Root", ScheduleId: "something-else"},
		{Name: "Generated", ParentTaskId: &parent},
	})
	require.NoError(t, err)

	tasks, err := svc.Tasks.GetScheduleTasks(ctx, s.Id)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	root, sub := tasks[0], tasks[1]
	assert.Equal(t, s.Id, root.ScheduleId)
	assert.Equal(t, model.TaskKindTask, root.Kind)
	assert.Equal(t, model.TaskStatusNotStarted, root.Status)
	assert.False(t, root.IsSubtask)
	assert.NotNil(t, root.Dependencies)

	assert.Regexp(t, `^task-`+s.Id+`-\d+-1$`, sub.Id)
	assert.True(t, sub.IsSubtask)
	assert.Equal(t, 1, sub.Level)
	assert.Equal(t, clock.Now(), sub.CreatedAt)
}

func TestSaveBulkTasks_EmptyListOverwrites(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(newTestClock())

	s, err := svc.Schedules.CreateSchedule(ctx, "proj-X", CreateScheduleInput{SelectedPhases: json.RawMessage(onePhaseTwoTasks)})
	require.NoError(t, err)

	n, err := svc.Tasks.SaveBulkTasks(ctx, s.Id, []*model.TaskModel{})
	require.NoError(t, err)
	assert.Zero(t, n)

	tasks, err := svc.Tasks.GetScheduleTasks(ctx, s.Id)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	current, err := svc.Schedules.GetSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.Zero(t, current.TotalTasks)
}

func TestSaveBulkTasks_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(newTestClock())

	_, err := svc.Tasks.SaveBulkTasks(ctx, "schedule-missing-1", []*model.TaskModel{{Id: "a"}})
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := svc.Schedules.CreateSchedule(ctx, "proj-X", CreateScheduleInput{})
	require.NoError(t, err)

	_, err = svc.Tasks.SaveBulkTasks(ctx, s.Id, []*model.TaskModel{{Id: "a"}, {Id: "a"}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Tasks.SaveBulkTasks(ctx, s.Id, []*model.TaskModel{nil})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetScheduleTasks_ExampleListWhenNeverSaved(t *testing.T) {
	svc, _ := newTestServices(newTestClock())

	tasks, err := svc.Tasks.GetScheduleTasks(context.Background(), "schedule-p-1")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		assert.Equal(t, "schedule-p-1", task.ScheduleId)
	}

	h, err := svc.Tasks.GetTaskHierarchy(context.Background(), "schedule-p-1")
	require.NoError(t, err)
	assert.Len(t, h.Children[tasks[0].Id], 1)
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	svc, _ := newTestServices(clock)

	s, err := svc.Schedules.CreateSchedule(ctx, "proj-X", CreateScheduleInput{})
	require.NoError(t, err)
	_, err = svc.Tasks.SaveBulkTasks(ctx, s.Id, []*model.TaskModel{
		{Id: "a", Name: "Survey", Assignee: "crew-1"},
		{Id: "b", Name: "Drawings"},
	})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	status := model.TaskStatusCompleted
	updated, err := svc.Tasks.UpdateTask(ctx, s.Id, "a", TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, updated.Status)
	assert.Equal(t, 100, updated.Progress)
	require.NotNil(t, updated.ActualEndDate)
	assert.Equal(t, clock.Now(), *updated.ActualEndDate)
	assert.Equal(t, "crew-1", updated.Assignee)
	assert.Equal(t, "Survey", updated.Name)

	schedule, err := svc.Schedules.GetSchedule(ctx, s.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, schedule.CompletedTasks)
	assert.Equal(t, 50, schedule.Progress)
}

func TestUpdateTask_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestServices(newTestClock())

	s, err := svc.Schedules.CreateSchedule(ctx, "proj-X", CreateScheduleInput{})
	require.NoError(t, err)
	_, err = svc.Tasks.SaveBulkTasks(ctx, s.Id, []*model.TaskModel{{Id: "a", Name: "Survey"}})
	require.NoError(t, err)

	_, err = svc.Tasks.UpdateTask(ctx, s.Id, "missing", TaskPatch{})
	assert.ErrorIs(t, err, ErrNotFound)

	bad := model.TaskStatus("paused")
	_, err = svc.Tasks.UpdateTask(ctx, s.Id, "a", TaskPatch{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	empty := " "
	_, err = svc.Tasks.UpdateTask(ctx, s.Id, "a", TaskPatch{Name: &empty})
	assert.ErrorIs(t, err, ErrValidation)
}
