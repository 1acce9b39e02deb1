package scheduler

import (
	"fmt"

	"github.com/blues/civicops/internal/config"
	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	services  *logic.Services
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(services *logic.Services, cfg *config.Config) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Manager{
		scheduler: s,
		services:  services,
		config:    cfg,
	}, nil
}

// Start 注册所有任务并启动调度器
func Start(services *logic.Services, cfg *config.Config) (*Manager, error) {
	manager, err := NewManager(services, cfg)
	if err != nil {
		return nil, err
	}

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager, nil
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	if m.config.Task.RollupInterval > 0 {
		m.register(NewScheduleRollupJob(m.services.Schedules, m.config))
	}
	if m.config.Task.OverdueInterval > 0 {
		m.register(NewApprovalOverdueJob(m.services.Approvals, m.config))
	}
}

// register 以单例模式注册任务，上一次未结束时顺延
func (m *Manager) register(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
		return
	}
	logger.Info("Registered job %s", job.GetName())
}

// Jobs 返回已注册任务的名称
func (m *Manager) Jobs() []string {
	jobs := m.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
