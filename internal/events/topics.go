package events

const (
	TopicChannelState   = "channel.state"
	TopicChannelMessage = "channel.message"
	TopicChannelSend    = "channel.send"
)
