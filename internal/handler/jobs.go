package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lunafit/studio-booking/internal/scheduler"
)

// JobHandler exposes the background sweeps as HTTP triggers so an
// external cron can drive them. The routes sit behind the cron-token
// middleware, not behind user auth.
type JobHandler struct {
	Sched *scheduler.Scheduler
}

func NewJobHandler(s *scheduler.Scheduler) *JobHandler {
	if s == nil {
		panic("nil scheduler passed to NewJobHandler")
	}
	return &JobHandler{Sched: s}
}

// SweepPackages handles GET /v1/cron/package-expiry-reminder.
func (h *JobHandler) SweepPackages(c echo.Context) error {
	if err := h.Sched.SweepPackages(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"job": "packages", "status": "ok"}})
}

// SweepReminders handles GET /v1/cron/send-class-reminders.
func (h *JobHandler) SweepReminders(c echo.Context) error {
	if err := h.Sched.SweepReminders(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"job": "reminders", "status": "ok"}})
}
