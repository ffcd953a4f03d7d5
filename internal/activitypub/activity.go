// Package activitypub holds the wire-level types exchanged with remote
// servers: decoded activity documents, collection envelopes, and the IRI
// scheme under which this server's objects are addressable.
package activitypub

// Context is the JSON-LD context attached to every outgoing document.
const Context = "https://www.w3.org/ns/activitystreams"

// Activity is a decoded protocol document. Inbound activities are untrusted
// JSON from remote peers, so every accessor tolerates missing or oddly
// typed fields instead of assuming a shape.
type Activity map[string]interface{}

// Type returns the activity's declared type, or "" when absent.
func (a Activity) Type() string {
	s, _ := a["type"].(string)
	return s
}

// Actor returns the originating actor's URI. Peers may send the actor as a
// bare string or as an embedded object carrying an "id".
func (a Activity) Actor() string {
	switch actor := a["actor"].(type) {
	case string:
		return actor
	case map[string]interface{}:
		id, _ := actor["id"].(string)
		return id
	default:
		return ""
	}
}

// Object returns the raw object field.
func (a Activity) Object() interface{} {
	return a["object"]
}

// ObjectActivity returns the object as a nested activity document, or nil
// when the object is absent or a bare identifier.
func (a Activity) ObjectActivity() Activity {
	m, _ := a["object"].(map[string]interface{})
	if m == nil {
		return nil
	}
	return Activity(m)
}

// ObjectID resolves the object to an identifier: either the object itself
// when it is a bare string, or the "id" of an embedded object. The second
// return reports whether an identifier was found.
func (a Activity) ObjectID() (string, bool) {
	switch object := a["object"].(type) {
	case string:
		if object == "" {
			return "", false
		}
		return object, true
	case map[string]interface{}:
		id, _ := object["id"].(string)
		return id, id != ""
	default:
		return "", false
	}
}
