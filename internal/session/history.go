package session

import (
	"google.golang.org/genai"

	"gitchat/internal/store"
)

// rebuildHistory converts persisted messages back into model contents.
// Tool exchanges were recorded as system messages; they re-enter the
// history as user-role text so a reloaded model keeps that context.
func rebuildHistory(msgs []store.Message) []*genai.Content {
	var history []*genai.Content
	for _, msg := range msgs {
		switch msg.Role {
		case store.RoleAgent:
			if msg.Text != "" {
				history = append(history, &genai.Content{
					Role:  genai.RoleModel,
					Parts: []*genai.Part{{Text: msg.Text}},
				})
			}
		case store.RoleUser, store.RoleSystem:
			parts := []*genai.Part{{Text: msg.Text}}
			if msg.ImageMIME != "" {
				parts = append(parts, &genai.Part{InlineData: &genai.Blob{
					MIMEType: msg.ImageMIME,
					Data:     msg.ImageData,
				}})
			}
			history = append(history, &genai.Content{Role: genai.RoleUser, Parts: parts})
		}
	}
	return history
}

// trimLastUser drops the trailing user message, which is delivered to the
// turn as fresh input rather than history.
func trimLastUser(msgs []store.Message) []store.Message {
	if len(msgs) > 0 && msgs[len(msgs)-1].Role == store.RoleUser {
		return msgs[:len(msgs)-1]
	}
	return msgs
}
