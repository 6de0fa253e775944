package messaging

import (
	"encoding/json"
	"fmt"
)

// ChatMessage is the wire form of one chat-channel line.
type ChatMessage struct {
	Channel string `json:"channel"`
	From    string `json:"from"`
	Text    string `json:"text"`
}

// ChatPublisher carries realm-wide chat channels over the message bus.
// Chat is fire-and-forget: it deliberately bypasses the event dispatcher and
// its per-participant ordering, the way out-of-band talk should.
type ChatPublisher struct {
	server *NatsServer
}

func NewChatPublisher(server *NatsServer) *ChatPublisher {
	return &ChatPublisher{server: server}
}

// PublishChat sends a line to everyone subscribed to the channel, the
// speaker included.
func (p *ChatPublisher) PublishChat(channel, from, text string) error {
	data, err := json.Marshal(ChatMessage{Channel: channel, From: from, Text: text})
	if err != nil {
		return fmt.Errorf("marshaling chat message: %w", err)
	}
	return p.server.Publish(chatSubject(channel), data)
}

// SubscribeChat registers a handler for a channel. The returned function
// removes the subscription.
func (p *ChatPublisher) SubscribeChat(channel string, handler func(msg ChatMessage)) (func(), error) {
	return p.server.Subscribe(chatSubject(channel), func(data []byte) {
		var msg ChatMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		handler(msg)
	})
}

func chatSubject(channel string) string {
	return fmt.Sprintf("chat.%s", channel)
}
