package retry

import "strings"

// lockConflictPatterns are lowercase fragments of git messages that mean
// another process holds (or left behind) a lock file.
var lockConflictPatterns = []string{
	"index.lock",
	".lock': file exists",
	"another git process seems to be running",
	"another process is running",
	"cannot lock ref",
	"could not lock config file",
	"unable to create",
}

// IsLockConflict reports whether err was caused by a lock artifact held by
// another process. Matching is by message so that it works on errors
// produced by the git CLI.
func IsLockConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range lockConflictPatterns {
		if !strings.Contains(msg, p) {
			continue
		}
		// "Unable to create" is only a lock conflict when it is about a lock file.
		if p == "unable to create" && !strings.Contains(msg, ".lock") {
			continue
		}
		return true
	}
	return false
}
