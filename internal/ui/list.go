package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sesh/internal/models"
)

var _ list.Item = eventItem{}

// eventItem wraps [models.SessionEvent] to implement [list.Item].
type eventItem struct {
	event models.SessionEvent
}

func (i eventItem) FilterValue() string { return string(i.event.Kind) }
func (i eventItem) Title() string       { return string(i.event.Kind) }
func (i eventItem) Description() string {
	desc := i.event.CreatedAt.Local().Format("2006-01-02 15:04:05")
	if i.event.Detail != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.event.Detail)
	}
	return desc
}
