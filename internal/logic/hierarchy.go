package logic

import "github.com/blues/civicops/internal/model"

// BuildHierarchy 将平铺的任务按 parentTaskId 分组，组内保持输入顺序。
// 没有父任务的记录不出现在结果中；父任务不存在的记录仍按其 parentTaskId 分组。
func BuildHierarchy(tasks []*model.TaskModel) map[string][]*model.TaskModel {
	hierarchy := make(map[string][]*model.TaskModel)
	for _, t := range tasks {
		if t == nil || !t.HasParent() {
			continue
		}
		hierarchy[*t.ParentTaskId] = append(hierarchy[*t.ParentTaskId], t)
	}
	return hierarchy
}

// TopLevelTasks 返回没有父任务的记录，保持输入顺序
func TopLevelTasks(tasks []*model.TaskModel) []*model.TaskModel {
	roots := make([]*model.TaskModel, 0, len(tasks))
	for _, t := range tasks {
		if t != nil && !t.HasParent() {
			roots = append(roots, t)
		}
	}
	return roots
}

// OrphanedParentIDs 返回 hierarchy 中在任务列表里找不到的父任务ID
func OrphanedParentIDs(tasks []*model.TaskModel, hierarchy map[string][]*model.TaskModel) []string {
	known := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t != nil {
			known[t.Id] = struct{}{}
		}
	}

	var orphaned []string
	seen := make(map[string]struct{})
	for _, t := range tasks {
		if t == nil || !t.HasParent() {
			continue
		}
		parent := *t.ParentTaskId
		if _, ok := known[parent]; ok {
			continue
		}
		if _, ok := hierarchy[parent]; !ok {
			continue
		}
		if _, dup := seen[parent]; dup {
			continue
		}
		seen[parent] = struct{}{}
		orphaned = append(orphaned, parent)
	}
	return orphaned
}
