package env

import (
	"os"
	"strings"
)

// PrependPath returns a copy of environ with dir placed at the front of the executable search path.
// The PATH key is matched case-insensitive, since Windows spells it "Path".
// If no search path is set, one is added containing only dir.
func PrependPath(environ []string, dir string) []string {
	updated := make([]string, 0, len(environ)+1)
	found := false
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if ok && !found && strings.EqualFold(key, "PATH") {
			found = true
			if len(val) > 0 {
				kv = key + "=" + dir + string(os.PathListSeparator) + val
			} else {
				kv = key + "=" + dir
			}
		}
		updated = append(updated, kv)
	}
	if !found {
		updated = append(updated, "PATH="+dir)
	}
	return updated
}
