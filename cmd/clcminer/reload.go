// Config hot-reload (SPEC_FULL §4.11): watch clcminer.toml for writes and
// swap the reloadable fields into the live config. github.com/rjeczalik/notify
// was an unwired teacher dependency (present in go.mod, no retrieved call
// site); this gives it its first real caller.
package main

import (
	"github.com/rjeczalik/notify"

	"clcminer/internal/plog"
)

// watchConfig blocks, re-parsing path and swapping hot fields into live on
// every write event, until done is closed. Parse failures are logged and
// the previous config is kept (SPEC_FULL §4.11, §7's "Config reload parse" row).
func watchConfig(path string, live *liveConfig, log *plog.Logger, done <-chan struct{}) {
	events := make(chan notify.EventInfo, 1)
	if err := notify.Watch(path, events, notify.Write); err != nil {
		log.Warn("Config hot-reload disabled", "err", err)
		return
	}
	defer notify.Stop(events)

	for {
		select {
		case <-done:
			return
		case <-events:
			next, err := loadFileConfig(path)
			if err != nil {
				log.Error("Config reload failed, keeping previous config", "err", err)
				continue
			}
			live.swapHotFields(next)
			log.Info("Config reloaded")
		}
	}
}
