package domain

import "time"

const MaxChatTextLen = 2000

type ChatEntry struct {
	StreamID    StreamID    `json:"streamId"`
	Identity    Identity    `json:"identity"`
	DisplayName DisplayName `json:"displayName"`
	Text        string      `json:"text"`
	Timestamp   time.Time   `json:"timestamp"`
}
