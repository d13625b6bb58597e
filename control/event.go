package control

// Event is what a device publishes after handling a command.
type Event struct {
	ID    string
	Name  string
	Topic string
	From  string
	Data  interface{}
}

func (e *Event) RoutingKey() string {
	return e.From + "." + e.Topic + "." + snakeCase(e.Name)
}

// ErrorData is the body of an event on the errors topic.
type ErrorData struct {
	Error string `json:"error"`
}
