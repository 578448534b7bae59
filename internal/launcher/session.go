package launcher

import "fmt"

// findActiveSession returns the id of the session attached to the interactive
// desktop. Only one session can be Active at a time, so the first one wins. A
// failed enumeration only means the console query is used instead.
func findActiveSession(api nativeAPI) (uint32, error) {
	sessions, enumErr := api.EnumerateSessions()
	if enumErr == nil {
		for _, s := range sessions {
			if s.State == StateActive {
				return s.ID, nil
			}
		}
	}

	if id := api.ActiveConsoleSessionID(); id != InvalidSessionID {
		return id, nil
	}
	if enumErr != nil {
		return 0, &SessionResolutionError{Err: fmt.Errorf("enumerate sessions: %w", enumErr)}
	}
	return 0, &SessionResolutionError{}
}
