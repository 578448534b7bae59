package launcher

// acquirePrimaryToken turns the user token of sessionID into a primary token
// usable for process creation. The token returned by the session query is always
// closed before returning.
func acquirePrimaryToken(api nativeAPI, sessionID uint32) (*owned, error) {
	h, err := api.QueryUserToken(sessionID)
	if err != nil {
		return nil, &AuthorizationError{SessionID: sessionID, Err: err}
	}
	userToken := ownHandle(api, h)
	defer userToken.Close()

	primary, err := api.DuplicateToken(userToken.Handle(), maximumAllowed, SecurityImpersonation, TokenPrimary)
	if err != nil {
		return nil, &TokenError{Op: "DuplicateTokenEx", Err: err}
	}
	return ownHandle(api, primary), nil
}

// buildEnvironment creates the target user's own environment block. The
// caller's environment is not inherited.
func buildEnvironment(api nativeAPI, token *owned) (*owned, error) {
	block, err := api.CreateEnvironmentBlock(token.Handle(), false)
	if err != nil {
		return nil, &EnvironmentError{Err: err}
	}
	return ownEnvironment(api, block), nil
}
