package api

import (
	"github.com/yourname/sleeptoggle/internal"
	"github.com/yourname/sleeptoggle/internal/metrics"
	"github.com/yourname/sleeptoggle/internal/service"
)

type App interface {
	Logger() internal.Logger
	Sleep() *service.SleepService
	Metrics() *metrics.Recorder
}
