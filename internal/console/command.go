package console

import "context"

// Command is an optimistic mutation: Apply updates local state
// immediately, Commit pushes the change to the backend, and Rollback
// restores the previous local state when the commit fails.
type Command struct {
	Apply    func()
	Commit   func(ctx context.Context) error
	Rollback func()
}

// Run executes a command. The local change is visible while the commit
// is in flight; a failed commit undoes it and returns the error.
func Run(ctx context.Context, cmd Command) error {
	if cmd.Apply != nil {
		cmd.Apply()
	}
	if cmd.Commit == nil {
		return nil
	}
	if err := cmd.Commit(ctx); err != nil {
		if cmd.Rollback != nil {
			cmd.Rollback()
		}
		return err
	}
	return nil
}
