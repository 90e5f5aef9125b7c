package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/moments/pkg/middleware"
)

// SchedulerJobs 返回所有调度器任务信息.
//
//	@Summary		列出定时任务
//	@Tags			调度器
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		503	{object}	types.ErrorResponse	"调度器未启用"
//	@Router			/api/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		fail(c, http.StatusServiceUnavailable, "scheduler not enabled", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos(), "waiting": sched.JobsWaitingInQueue()})
}

// SchedulerRunJob 立即执行一次 :name 任务.
//
//	@Summary		立即执行定时任务
//	@Tags			调度器
//	@Produce		json
//	@Param			name	path		string	true	"任务名，例如 ledger.reconcile"
//	@Success		202		{object}	map[string]any
//	@Failure		404		{object}	types.ErrorResponse	"任务不存在"
//	@Failure		503		{object}	types.ErrorResponse	"调度器未启用"
//	@Router			/api/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		fail(c, http.StatusServiceUnavailable, "scheduler not enabled", nil)
		return
	}

	name := c.Param("name")
	if _, err := sched.GetJobInfoByName(name); err != nil {
		fail(c, http.StatusNotFound, "job not found", err)
		return
	}

	if err := sched.RunNow(name); err != nil {
		fail(c, http.StatusInternalServerError, "run job failed", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "job triggered", "job": name})
}
