package model

// CommandResult is what a Connection reports for one command. ExitCode 0 is
// the only success signal; -1 means the command never ran.
type CommandResult struct {
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

func (r *CommandResult) OK() bool {
	return r != nil && r.ExitCode == 0
}
