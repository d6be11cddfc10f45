// Package logging provides subsystem-tagged structured logging for loopauth,
// built on log/slog.
//
// Every entry carries a "subsystem" attribute naming the component that
// emitted it (for example "CallbackServer" or "Authorizer"), plus an "error"
// attribute when logged through Error.
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Authorizer", "Waiting for OAuth callback at %s", redirectURI)
//	logging.Debug("Config", "Loaded configuration from %s", path)
//	logging.Error("CallbackServer", err, "Token exchange failed")
//
// Before Init is called, debug and info messages are dropped and warnings and
// errors go to the slog default logger.
package logging
