package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blues/civicops/internal/config"
	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/logic"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
)

// rollupPoolSize 并发刷新计划进度的协程数
const rollupPoolSize = 8

// ScheduleRollupJob 计划进度汇总任务
type ScheduleRollupJob struct {
	schedules *logic.ScheduleLogic
	config    *config.Config
}

// NewScheduleRollupJob 创建计划进度汇总任务
func NewScheduleRollupJob(schedules *logic.ScheduleLogic, cfg *config.Config) *ScheduleRollupJob {
	return &ScheduleRollupJob{
		schedules: schedules,
		config:    cfg,
	}
}

// GetName 获取任务名称
func (j *ScheduleRollupJob) GetName() string {
	return "schedule_progress_rollup"
}

// GetSchedule 获取调度配置
func (j *ScheduleRollupJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.RollupInterval) * time.Second)
}

// Execute 执行任务
func (j *ScheduleRollupJob) Execute() {
	if _, err := j.Run(context.Background()); err != nil {
		logger.Error("Schedule progress rollup failed: %v", err)
	}
}

// Run 刷新所有计划的进度统计，返回处理成功的计划数
func (j *ScheduleRollupJob) Run(ctx context.Context) (int, error) {
	logger.Debug("Starting schedule progress rollup")

	schedules, err := j.schedules.ListAllSchedules(ctx)
	if err != nil {
		return 0, err
	}
	if len(schedules) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(rollupPoolSize)
	if err != nil {
		return 0, err
	}
	defer pool.Release()

	var (
		wg        sync.WaitGroup
		refreshed atomic.Int64
	)
	for _, s := range schedules {
		scheduleId := s.Id
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if _, err := j.schedules.RecalculateProgress(ctx, scheduleId); err != nil {
				logger.Warn("Failed to recalculate progress of schedule %s: %v", scheduleId, err)
				return
			}
			refreshed.Add(1)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit rollup of schedule %s: %v", scheduleId, err)
		}
	}
	wg.Wait()

	logger.Info("Schedule progress rollup completed. Refreshed %d of %d schedules", refreshed.Load(), len(schedules))
	return int(refreshed.Load()), nil
}
