package call

import (
	"context"

	"github.com/rpggio/calldesk/internal/domain/contact"
)

// CallStateProbe reports the device's coarse call state: 0 idle, 1 ringing,
// 2 off-hook. Any error means the probe is unavailable.
type CallStateProbe interface {
	CallState(ctx context.Context) (int, error)
}

// CallListProbe lists the calls the device currently holds.
type CallListProbe interface {
	ActiveCalls(ctx context.Context) ([]ActiveCall, error)
}

// Device issues call-control commands.
type Device interface {
	Dial(ctx context.Context, number string) error
	EndCall(ctx context.Context) error
}

// ContactBook is the slice of the contact store the tracker writes to.
type ContactBook interface {
	Get(ctx context.Context, id string) (*contact.Contact, error)
	Update(ctx context.Context, id string, patch contact.Patch) (*contact.Contact, error)
}
