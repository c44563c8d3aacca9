package domain

// Snapshot is a full topology read from the data source
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
	Admin bool   `json:"user_is_admin"`
}

// ConnectRequest asks the backend to connect two ports
type ConnectRequest struct {
	SourcePortID ID     `json:"porta_origem_id"`
	TargetPortID ID     `json:"porta_destino_id"`
	Note         string `json:"observacao"`
}

// DisconnectRequest asks the backend to clear the connection of a port
type DisconnectRequest struct {
	PortID ID `json:"porta_id"`
}

// CommandResult is the response to a connect or disconnect command
type CommandResult struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the backend accepted the command. Older endpoints
// signal success with a message instead of the success flag.
func (r *CommandResult) OK() bool {
	if r == nil || r.Error != "" {
		return false
	}
	return r.Success || r.Message != ""
}

// RejectionError is a refusal reported by the data source in an
// {error: ...} payload. Its message is shown to the user verbatim.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}
