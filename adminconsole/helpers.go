package adminconsole

import "os"

// currentPID isolates the os.Getpid() call behind a seam cheap enough not
// to bother mocking in tests that exercise Dispatch's other commands.
func currentPID() int { return os.Getpid() }

func readHistoryFile(path string) (*os.File, error) {
	return os.Open(path)
}

func writeHistoryFile(path string) (*os.File, error) {
	return os.Create(path)
}
