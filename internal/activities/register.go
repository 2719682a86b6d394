package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.FetchResultActivity)
	w.RegisterActivity(a.RenderReportActivity)
	w.RegisterActivity(a.WriteExportsActivity)
	w.RegisterActivity(a.WriteChartsActivity)
	w.RegisterActivity(a.WriteManifestActivity)
}
