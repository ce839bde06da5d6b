package app

import (
	"context"
	"time"

	rtsup "remindbot/internal/runtime/supervisor"
)

// Status is served at /debug/status. Message text is never included.
type Status struct {
	Time       time.Time      `json:"time"`
	Timezone   string         `json:"timezone"`
	Tasks      int            `json:"tasks"`
	TasksErr   string         `json:"tasks_error,omitempty"`
	Poller     PollerStatus   `json:"poller"`
	Sends      SendStatus     `json:"sends"`
	Supervisor rtsup.Counters `json:"supervisor"`
}

type PollerStatus struct {
	Enabled  bool       `json:"enabled"`
	State    string     `json:"state"`
	LastTick *TickStats `json:"last_tick,omitempty"`
}

type TickStats struct {
	At      time.Time `json:"at"`
	Due     int       `json:"due"`
	Sent    int       `json:"sent"`
	Failed  int       `json:"failed"`
	Skipped bool      `json:"skipped"`
	Err     string    `json:"error,omitempty"`
}

// SendStatus summarises the notifier's recent history window.
type SendStatus struct {
	Recent      int       `json:"recent"`
	Failed      int       `json:"failed"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

func (a *App) status(ctx context.Context) any {
	st := Status{
		Time:     a.reminders.Now(),
		Timezone: a.reminders.Location().String(),
		Poller: PollerStatus{
			Enabled: a.poller.Enabled(),
			State:   a.poller.State().String(),
		},
	}
	if n, err := a.reminders.Count(ctx); err != nil {
		st.TasksErr = err.Error()
	} else {
		st.Tasks = n
	}
	if rep, ok := a.poller.LastReport(); ok {
		ts := &TickStats{At: rep.At, Due: rep.Due, Sent: rep.Sent, Failed: rep.Failed, Skipped: rep.Skipped}
		if rep.Err != nil {
			ts.Err = rep.Err.Error()
		}
		st.Poller.LastTick = ts
	}
	for _, it := range a.notif.Snapshot() {
		st.Sends.Recent++
		if it.Err != "" {
			st.Sends.Failed++
			st.Sends.LastFailure = it.At
		}
	}
	if a.sup != nil {
		st.Supervisor = a.sup.Counters()
	}
	return st
}
