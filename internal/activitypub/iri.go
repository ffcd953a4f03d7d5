package activitypub

import (
	"fmt"
	"net/url"
	"strings"
)

// IRIs builds the external identifiers under which this server's objects are
// dereferenceable. All services share one instance so that target checks and
// emitted documents agree on the exact URL format.
type IRIs struct {
	base string
}

func NewIRIs(baseURL string) (*IRIs, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid federation base url %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("federation base url %q must be absolute", baseURL)
	}
	return &IRIs{base: strings.TrimRight(baseURL, "/")}, nil
}

// Actor is the group actor's canonical URI; inbound Follow and Undo
// activities must name it as their target.
func (i *IRIs) Actor(groupID string) string {
	return i.base + "/actors/" + url.PathEscape(groupID)
}

func (i *IRIs) Inbox(groupID string) string {
	return i.Actor(groupID) + "/inbox"
}

func (i *IRIs) Followers(groupID string) string {
	return i.Actor(groupID) + "/followers"
}

// Announce is the permanent dereference URL of a ledger record.
func (i *IRIs) Announce(announceID string) string {
	return i.base + "/activity/announce/" + url.PathEscape(announceID)
}
