package checks

// EventKind is a GitHub webhook event type this app knows about
type EventKind int

const (
	EventUnknown EventKind = iota
	EventPing
	EventPullRequest
)

// ParseEventKind maps an X-GitHub-Event header value to an EventKind
func ParseEventKind(name string) EventKind {
	switch name {
	case "ping":
		return EventPing
	case "pull_request":
		return EventPullRequest
	default:
		return EventUnknown
	}
}

// PullRequestAction is the action field of a pull_request event
type PullRequestAction int

const (
	ActionOther PullRequestAction = iota
	ActionOpened
	ActionEdited
	ActionSynchronize
)

// ParsePullRequestAction maps a pull_request action string to a PullRequestAction
func ParsePullRequestAction(action string) PullRequestAction {
	switch action {
	case "opened":
		return ActionOpened
	case "edited":
		return ActionEdited
	case "synchronize":
		return ActionSynchronize
	default:
		return ActionOther
	}
}

// Matches reports whether the signed-commits check runs for this event:
// pull_request opened, edited or synchronize.
func Matches(event, action string) bool {
	switch ParseEventKind(event) {
	case EventPullRequest:
		switch ParsePullRequestAction(action) {
		case ActionOpened, ActionEdited, ActionSynchronize:
			return true
		case ActionOther:
			return false
		}
	case EventPing, EventUnknown:
		return false
	}
	return false
}

// PullRequestEvent carries what the check needs from a pull_request delivery
type PullRequestEvent struct {
	DeliveryID     string
	InstallationID int64
	Owner          string
	Repo           string
	Number         int
	HeadSHA        string
}

// FullName returns owner/repo
func (e PullRequestEvent) FullName() string {
	return e.Owner + "/" + e.Repo
}
