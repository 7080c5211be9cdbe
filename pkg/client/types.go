package client

// ChannelKind tags the capability set of a channel.
type ChannelKind int

const (
	KindUnknown ChannelKind = iota
	KindText
	KindVoice
)

func (k ChannelKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindVoice:
		return "voice"
	default:
		return "unknown"
	}
}

// Channel is a generic channel reference whose capability may or may not be known.
type Channel struct {
	ID   string
	Kind ChannelKind
}

// Text narrows c to a text channel reference.
func (c Channel) Text() (TextChannel, bool) {
	if c.Kind != KindText {
		return TextChannel{}, false
	}
	return TextChannel{ID: c.ID}, true
}

// Voice narrows c to a voice channel reference.
func (c Channel) Voice() (VoiceChannel, bool) {
	if c.Kind != KindVoice {
		return VoiceChannel{}, false
	}
	return VoiceChannel{ID: c.ID}, true
}

// TextChannel references a channel that accepts messages.
type TextChannel struct {
	ID string
}

// Channel widens t to a generic reference.
func (t TextChannel) Channel() Channel {
	return Channel{ID: t.ID, Kind: KindText}
}

// VoiceChannel references a voice-capable channel.
type VoiceChannel struct {
	ID string
}

// Channel widens v to a generic reference.
func (v VoiceChannel) Channel() Channel {
	return Channel{ID: v.ID, Kind: KindVoice}
}

// User references a platform account.
type User struct {
	ID   string
	Name string
}

// Message is one text message as delivered by a client. It is treated as
// immutable once constructed.
type Message struct {
	ID      string
	Content string
	Channel TextChannel
	Author  User
}
