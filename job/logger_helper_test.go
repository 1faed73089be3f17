package job

import "clcminer/internal/plog"

func fakeLogger() *plog.Logger { return plog.New() }
