package logger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// WaitingWarning periodically logs a warning while some long-running operation is still in
// progress, until Cancel is called.
type WaitingWarning struct {
	active    bool
	interrupt chan interface{}

	sync.Mutex
}

// NewWaitingWarning starts logging a warning every frequency until the returned WaitingWarning is
// cancelled. format/values describe what is being waited on.
func NewWaitingWarning(ctx context.Context, frequency time.Duration, format string,
	values ...interface{}) *WaitingWarning {

	w := &WaitingWarning{
		active:    true,
		interrupt: make(chan interface{}),
	}

	caller := GetCaller(1)
	message := fmt.Sprintf(format, values...)
	go w.run(ctx, message, caller, frequency)

	return w
}

func (w *WaitingWarning) run(ctx context.Context, message, caller string, frequency time.Duration) {
	start := time.Now()
	for {
		select {
		case <-time.After(frequency):
			LogWithCaller(ctx, LevelWarn, caller, []Field{
				Timestamp("start", start.UnixNano()),
				MillisecondsFromNano("elapsed_ms", time.Since(start).Nanoseconds()),
			}, "Waiting for: %s", message)

		case <-w.interrupt:
			return
		}
	}
}

// Cancel stops the repeated warning. Safe to call more than once.
func (w *WaitingWarning) Cancel() {
	w.Lock()
	defer w.Unlock()

	if !w.active {
		return
	}

	close(w.interrupt)
	w.active = false
}
