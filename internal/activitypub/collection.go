package activitypub

// OrderedCollection is the protocol rendering of a follower set.
type OrderedCollection struct {
	Context      string   `json:"@context,omitempty"`
	Type         string   `json:"type"`
	TotalItems   int64    `json:"totalItems"`
	OrderedItems []string `json:"orderedItems"`
}

// ActorDocument is the public description of a group actor.
type ActorDocument struct {
	Context   string `json:"@context"`
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	Summary   string `json:"summary,omitempty"`
	Inbox     string `json:"inbox"`
	Followers string `json:"followers"`
}
