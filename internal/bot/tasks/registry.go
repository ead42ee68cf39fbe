package tasks

// RegisterAllTasks returns the map of registered scheduled tasks. The keys
// match the task names used in the scheduler section of config.yaml.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks["manual_poll"] = newManualPollTask(deps)
	tasks["capture_log_maintenance"] = newMaintenanceTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
