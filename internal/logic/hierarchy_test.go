package logic

import (
	"testing"

	"github.com/blues/civicops/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(id string, parent string) *model.TaskModel {
	t := &model.TaskModel{Id: id, Kind: model.TaskKindTask}
	if parent != "" {
		p := parent
		t.ParentTaskId = &p
	}
	return t
}

func taskIDs(tasks []*model.TaskModel) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Id)
	}
	return out
}

func TestBuildHierarchy_GroupsByParentInInputOrder(t *testing.T) {
	tasks := []*model.TaskModel{
		newTask("t1", ""),
		newTask("s2", "t1"),
		newTask("t2", ""),
		newTask("s1", "t1"),
		newTask("s3", "t2"),
	}

	h := BuildHierarchy(tasks)

	require.Len(t, h, 2)
	assert.Equal(t, []string{"s2", "s1"}, taskIDs(h["t1"]))
	assert.Equal(t, []string{"s3"}, taskIDs(h["t2"]))
	assert.NotContains(t, h, "")
}

func TestBuildHierarchy_EmptyInput(t *testing.T) {
	h := BuildHierarchy(nil)
	assert.NotNil(t, h)
	assert.Empty(t, h)
}

func TestBuildHierarchy_SkipsNilAndEmptyParent(t *testing.T) {
	empty := ""
	tasks := []*model.TaskModel{
		nil,
		{Id: "t1", ParentTaskId: &empty},
		newTask("s1", "t1"),
	}

	h := BuildHierarchy(tasks)

	require.Len(t, h, 1)
	assert.Equal(t, []string{"s1"}, taskIDs(h["t1"]))
}

func TestBuildHierarchy_Idempotent(t *testing.T) {
	tasks := []*model.TaskModel{newTask("t1", ""), newTask("s1", "t1"), newTask("s2", "t1")}

	first := BuildHierarchy(tasks)
	second := BuildHierarchy(tasks)

	assert.Equal(t, first, second)
}

func TestBuildHierarchy_KeepsOrphansUnderMissingParent(t *testing.T) {
	tasks := []*model.TaskModel{newTask("t1", ""), newTask("s1", "ghost")}

	h := BuildHierarchy(tasks)

	assert.Equal(t, []string{"s1"}, taskIDs(h["ghost"]))
	assert.Equal(t, []string{"ghost"}, OrphanedParentIDs(tasks, h))
}

func TestTopLevelTasks(t *testing.T) {
	tasks := []*model.TaskModel{newTask("t1", ""), newTask("s1", "t1"), nil, newTask("t2", "")}

	assert.Equal(t, []string{"t1", "t2"}, taskIDs(TopLevelTasks(tasks)))
}

func TestOrphanedParentIDs_NoneWhenParentsPresent(t *testing.T) {
	tasks := []*model.TaskModel{newTask("t1", ""), newTask("s1", "t1")}

	assert.Empty(t, OrphanedParentIDs(tasks, BuildHierarchy(tasks)))
}
