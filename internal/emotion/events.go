package emotion

type Event string

const (
	// UserSpoke follows every conversational turn from the user.
	UserSpoke Event = "user_spoke"
	// ChimeDelivered follows an unprompted utterance.
	ChimeDelivered Event = "chime_delivered"
	// DeepReply follows a reply produced in deep mode.
	DeepReply Event = "deep_reply"
	// QuietDown is the user asking the assistant to tone it down.
	QuietDown Event = "quiet_down"
	// Serious is the user asking to be taken seriously.
	Serious Event = "serious"
)

type delta struct {
	dim    Dimension
	amount float64
	scaled bool
}

func scaled(d Dimension, amount float64) delta { return delta{dim: d, amount: amount, scaled: true} }
func fixed(d Dimension, amount float64) delta  { return delta{dim: d, amount: amount} }

// Being talked to resets boredom and loneliness outright rather than letting them decay.
var impulses = map[Event][]delta{
	UserSpoke: {
		scaled(Energy, 3),
		scaled(Mood, 2),
		scaled(Focus, 2),
		scaled(Affection, 2),
		scaled(Playfulness, 2),
		scaled(Excitement, 16),
		scaled(Curiosity, 6),
		scaled(Warmth, 1),
		scaled(Boredom, -22),
		scaled(Loneliness, -28),
		fixed(Patience, -1),
		scaled(Annoyance, 2),
	},
	ChimeDelivered: {
		scaled(Boredom, -12),
		scaled(Loneliness, -10),
		scaled(Excitement, 4),
		scaled(Energy, 1),
		scaled(Playfulness, 1),
	},
	DeepReply: {
		scaled(Curiosity, 8),
		scaled(Focus, 6),
		scaled(Seriousness, 4),
		scaled(Energy, -2),
	},
	QuietDown: {
		fixed(Annoyance, -25),
		fixed(Sass, -20),
		fixed(Irritation, -20),
		fixed(Playfulness, -15),
	},
	Serious: {
		fixed(Seriousness, 30),
		fixed(Sass, -22),
		fixed(Irritation, -18),
		fixed(Playfulness, -25),
		fixed(Annoyance, -15),
	},
}
