package control

import (
	"encoding/json"
	"strings"
)

// Command is a request addressed to one device. Data is the undecoded JSON
// body; each handler decodes what it needs.
type Command struct {
	ID    string
	Name  string
	Topic string
	To    string
	Data  json.RawMessage
}

func NewCommand(to string, name string, data json.RawMessage) *Command {
	return &Command{
		Name:  name,
		Topic: CommandTopic,
		To:    to,
		Data:  data,
	}
}

func snakeCase(s string) string {
	return strings.Replace(strings.ToLower(s), " ", "_", -1)
}

func (c *Command) RoutingKey() string {
	return c.To + "." + CommandTopic + "." + snakeCase(c.Name)
}
