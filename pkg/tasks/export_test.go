package tasks

import apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"

// ProgressOf extracts progress observer from SubmitOption.
func ProgressOf(opt SubmitOption) func(apitasks.Task) {
	sc := &submitConfig{}
	opt(sc)
	return func(t apitasks.Task) {
		for _, p := range sc.progress {
			p(t)
		}
	}
}
