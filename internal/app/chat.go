package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Stream/internal/core"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/rs/zerolog/log"
)

const defaultChatLogQueue = 256

// ChatRelay fans chat entries out to a room's current members and hands a
// copy to the chat log, if one is configured.
type ChatRelay struct {
	Rooms *core.RoomRegistry
	D     *Dispatcher

	appender *chatAppender
}

func NewChatRelay(rooms *core.RoomRegistry, d *Dispatcher, chatLog ChatLog, queue int) *ChatRelay {
	c := &ChatRelay{Rooms: rooms, D: d}
	if chatLog != nil {
		if queue <= 0 {
			queue = defaultChatLogQueue
		}
		c.appender = newChatAppender(chatLog, queue)
	}
	return c
}

// Start runs the chat log appender until ctx is done or Stop is called.
// Neither loses queued entries.
func (c *ChatRelay) Start(ctx context.Context) {
	if c.appender != nil {
		c.appender.start(ctx)
	}
}

// Stop closes the appender and writes every entry still queued.
func (c *ChatRelay) Stop() {
	if c.appender != nil {
		c.appender.stop()
	}
}

// Send delivers entry to every current member of streamID. Entries from one
// connection are delivered in submission order because each connection's
// requests are handled sequentially and every recipient queue is FIFO.
func (c *ChatRelay) Send(streamID domain.StreamID, entry domain.ChatEntry) PublishResult {
	entry.StreamID = streamID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	res := c.D.Broadcast(c.Rooms.MembersOf(streamID), protocol.NewChatBroadcast(entry))
	if c.appender != nil {
		c.appender.enqueue(entry)
	}
	log.Debug().
		Str("module", "app.chat").
		Str("stream", string(streamID)).
		Str("identity", string(entry.Identity)).
		Int("sent_to", res.SendTo).
		Msg("chat relayed")
	return res
}

// chatAppender writes entries to the chat log off the request path. A full
// queue drops the entry; real-time delivery has already happened. Entries
// still queued when the loop's ctx ends or Stop is called are flushed, each
// write bounded by appendTimeout.
type chatAppender struct {
	log   ChatLog
	queue chan domain.ChatEntry

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

const appendTimeout = 5 * time.Second

func newChatAppender(l ChatLog, size int) *chatAppender {
	return &chatAppender{log: l, queue: make(chan domain.ChatEntry, size)}
}

func (a *chatAppender) start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.closed {
		return
	}
	a.started = true
	a.wg.Add(1)
	go a.loop(ctx)
}

func (a *chatAppender) loop(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			n := a.flush()
			log.Info().Str("module", "app.chat").Int("flushed", n).Msg("chat log appender ctx done")
			return
		case entry, ok := <-a.queue:
			if !ok {
				return
			}
			a.write(entry)
		}
	}
}

// write runs on its own context so a cancelled loop ctx cannot fail it.
func (a *chatAppender) write(entry domain.ChatEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()
	if err := a.log.AppendChatLog(ctx, entry); err != nil {
		log.Error().Err(err).Str("module", "app.chat").Str("stream", string(entry.StreamID)).Msg("append chat log")
	}
}

// flush writes whatever is queued right now and returns how many entries
// it wrote.
func (a *chatAppender) flush() int {
	n := 0
	for {
		select {
		case entry, ok := <-a.queue:
			if !ok {
				return n
			}
			a.write(entry)
			n++
		default:
			return n
		}
	}
}

func (a *chatAppender) enqueue(entry domain.ChatEntry) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- entry:
	default:
		log.Warn().Str("module", "app.chat").Str("stream", string(entry.StreamID)).Msg("chat log queue full, entry dropped")
	}
}

func (a *chatAppender) stop() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	a.wg.Wait()
	if n := a.flush(); n > 0 {
		log.Info().Str("module", "app.chat").Int("flushed", n).Msg("chat log appender stopped")
	}
}
