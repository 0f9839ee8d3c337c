package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/catalog"
	"github.com/mynewsletters/voicebrief/internal/tts"
)

// ErrConversationActive is returned when a second duplex stream tries to
// attach to a session that already has one.
var ErrConversationActive = errors.New("voice: conversation already has an active transport")

// Transport is the duplex frame connection a conversation runs over.
// *websocket.Conn satisfies it.
type Transport interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// InteractionLog persists transcript/reply pairs. *catalog.Repo satisfies it.
type InteractionLog interface {
	LogInteraction(ctx context.Context, entry *catalog.ChatLog) error
}

type transcriptFrame struct {
	Transcript string `json:"transcript"`
}

type replyFrame struct {
	Text    string `json:"text"`
	Intent  string `json:"intent"`
	Success bool   `json:"success"`
	Audio   string `json:"audio,omitempty"` // base64 mp3 when synthesis is on
}

const textMessage = 1 // websocket.TextMessage

// Conversation is one live voice exchange bound to one briefing session.
// At most one transport is active at a time.
type Conversation struct {
	SessionID string

	dispatcher *Dispatcher
	synth      tts.Synthesizer // nil disables audio frames
	logs       InteractionLog  // nil disables history
	log        *zap.Logger

	mu        sync.Mutex
	transport Transport
}

func NewConversation(sessionID string, d *Dispatcher, synth tts.Synthesizer, logs InteractionLog, log *zap.Logger) *Conversation {
	if log == nil {
		log = zap.NewNop()
	}
	return &Conversation{
		SessionID:  sessionID,
		dispatcher: d,
		synth:      synth,
		logs:       logs,
		log:        log.With(zap.String("session_id", sessionID)),
	}
}

// Run attaches the transport and pumps transcript frames through the
// dispatcher until the transport errors or is closed. Only one Run may be
// active per conversation.
func (c *Conversation) Run(ctx context.Context, t Transport) error {
	c.mu.Lock()
	if c.transport != nil {
		c.mu.Unlock()
		return ErrConversationActive
	}
	c.transport = t
	c.mu.Unlock()

	defer c.detach(t)
	c.log.Info("conversation started")

	for {
		_, data, err := t.ReadMessage()
		if err != nil {
			// Normal teardown path for client disconnects.
			c.log.Info("conversation transport closed", zap.Error(err))
			return nil
		}

		var frame transcriptFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("dropping malformed frame", zap.Error(err))
			continue
		}

		intent := MatchIntent(frame.Transcript)
		if intent == IntentNone {
			continue
		}

		res := c.dispatcher.Dispatch(ctx, intent, c.SessionID, frame.Transcript)
		c.record(ctx, frame.Transcript, res.Message, intent)

		if err := c.send(t, intent, res); err != nil {
			c.log.Warn("failed to write reply frame", zap.Error(err))
			return nil
		}
	}
}

func (c *Conversation) send(t Transport, intent Intent, res Result) error {
	frame := replyFrame{Text: res.Message, Intent: string(intent), Success: res.Success}

	if c.synth != nil {
		// Synthesis failures degrade to text-only frames.
		if audio, err := c.synth.Synthesize(context.Background(), res.Message); err != nil {
			c.log.Warn("synthesis failed, sending text only", zap.Error(err))
		} else {
			frame.Audio = base64.StdEncoding.EncodeToString(audio.Data)
		}
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return t.WriteMessage(textMessage, data)
}

func (c *Conversation) record(ctx context.Context, transcript, reply string, intent Intent) {
	if c.logs == nil {
		return
	}
	// History is best effort; a logging failure never interrupts speech.
	if err := c.logs.LogInteraction(ctx, &catalog.ChatLog{
		SessionID: c.SessionID, Role: "user", Content: transcript, Intent: string(intent),
	}); err != nil {
		c.log.Warn("failed to log user turn", zap.Error(err))
		return
	}
	if err := c.logs.LogInteraction(ctx, &catalog.ChatLog{
		SessionID: c.SessionID, Role: "assistant", Content: reply, Intent: string(intent),
	}); err != nil {
		c.log.Warn("failed to log assistant turn", zap.Error(err))
	}
}

func (c *Conversation) detach(t Transport) {
	c.mu.Lock()
	if c.transport == t {
		c.transport = nil
	}
	c.mu.Unlock()
}

// Close tears down the active transport, if any. Safe to call repeatedly and
// during shutdown; teardown errors are logged, never returned.
func (c *Conversation) Close() {
	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.mu.Unlock()

	if t == nil {
		return
	}
	if err := t.Close(); err != nil {
		c.log.Warn("transport close failed", zap.Error(err))
	}
	c.log.Info("conversation ended")
}
