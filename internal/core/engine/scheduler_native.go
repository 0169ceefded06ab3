//go:build !js

package engine

func newDefaultScheduler(fps int) Scheduler {
	return NewTickScheduler(fps)
}
