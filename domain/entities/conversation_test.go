package entities

import "testing"

func TestConversationLogAppendOnly(t *testing.T) {
	var log ConversationLog
	first := log.Append(MessageRoleUser, "he's bleeding")
	second := log.Append(MessageRoleAssistant, "Apply direct pressure to the wound.")

	if log.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", log.Len())
	}
	msgs := log.Messages()
	if msgs[0].ID != first.ID || msgs[1].ID != second.ID {
		t.Error("messages out of append order")
	}
	if first.ID == second.ID {
		t.Error("message ids not unique")
	}

	// Mutating the returned slice must not touch the log.
	msgs[0].Text = "tampered"
	if log.Messages()[0].Text != "he's bleeding" {
		t.Error("Messages() exposed internal state")
	}
}

func TestConversationMessageFields(t *testing.T) {
	msg := NewConversationMessage(MessageRoleAssistant, "stay calm")
	if msg.ID == "" {
		t.Error("missing id")
	}
	if msg.Role != MessageRoleAssistant || msg.Text != "stay calm" {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("missing timestamp")
	}
}

func TestTranscriptBufferAccumulatesAndFlushesOnce(t *testing.T) {
	var buf TranscriptBuffer
	buf.Write("Press firmly ")
	buf.Write("on the wound.")

	if buf.Text() != "Press firmly on the wound." {
		t.Errorf("Text() = %q", buf.Text())
	}
	if got := buf.Flush(); got != "Press firmly on the wound." {
		t.Errorf("Flush() = %q", got)
	}
	if buf.Text() != "" {
		t.Error("buffer not reset after flush")
	}
	if buf.Flush() != "" {
		t.Error("second flush returned stale text")
	}
}
