// Package notify shows desktop notifications and blocking alerts.
package notify

import (
	"github.com/gen2brain/beeep"

	"murmur/log"
)

const title = "murmur"

func init() {
	beeep.AppName = title
}

type Desktop struct{}

func New() *Desktop { return &Desktop{} }

func (*Desktop) Notify(message string) error {
	return beeep.Notify(title, message, "")
}

// Alert shows a dialog the user has to dismiss.
func (*Desktop) Alert(message string) error {
	return beeep.Alert(title, message, "")
}

// Console writes notifications to the diagnostic log and stdout callback
// instead of the desktop, for headless runs.
type Console struct {
	Print func(kind, message string)
}

func (c *Console) Notify(message string) error {
	log.Infof("notify: %s", message)
	if c.Print != nil {
		c.Print("NOTIFY", message)
	}
	return nil
}

func (c *Console) Alert(message string) error {
	log.Warnf("alert: %s", message)
	if c.Print != nil {
		c.Print("ALERT", message)
	}
	return nil
}
