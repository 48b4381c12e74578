package messaging

import (
	"context"
	"fmt"
	"testing"
	"time"

	adapters "github.com/gabotrixinc/call-scribe-nexus-sub001/internal/adapters/http"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/domain"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/internal/repository/repositorytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	sendTextFunc func(ctx context.Context, to, body string) (string, error)
	textCalls    int
	lastTo       string
	lastBody     string
}

func (m *mockSender) SendText(ctx context.Context, to, body string) (string, error) {
	m.textCalls++
	m.lastTo = to
	m.lastBody = body
	if m.sendTextFunc != nil {
		return m.sendTextFunc(ctx, to, body)
	}
	return "wamid.out", nil
}

func (m *mockSender) SendTemplate(ctx context.Context, to, templateName, language string, parameters []string) (string, error) {
	return "wamid.tpl", nil
}

type mockReplier struct {
	replyFunc func(ctx context.Context, persona string, history []adapters.ChatTurn) (string, error)
	calls     int
	lastTurns []adapters.ChatTurn
}

func (m *mockReplier) GenerateReply(ctx context.Context, persona string, history []adapters.ChatTurn) (string, error) {
	m.calls++
	m.lastTurns = history
	if m.replyFunc != nil {
		return m.replyFunc(ctx, persona, history)
	}
	return "", nil
}

type fakeSeenMarker struct {
	seen map[string]bool
}

func newFakeSeenMarker() *fakeSeenMarker {
	return &fakeSeenMarker{seen: make(map[string]bool)}
}

func (m *fakeSeenMarker) Seen(ctx context.Context, identifier string) (bool, error) {
	return m.seen[identifier], nil
}

func (m *fakeSeenMarker) MarkSeen(ctx context.Context, identifier string, ttl time.Duration) (bool, error) {
	was := m.seen[identifier]
	m.seen[identifier] = true
	return !was, nil
}

func inbound(id, from, content string) *InboundMessage {
	return &InboundMessage{
		From:              from,
		ProfileName:       "Sam",
		ProviderMessageID: id,
		Content:           content,
		Timestamp:         time.Now(),
	}
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates conversation and message on first contact", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		service := NewService(repos, &mockSender{}, &mockReplier{}, nil, nil)

		message, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hello"))
		require.NoError(t, err)
		require.NotNil(t, message)
		assert.Equal(t, domain.DirectionInbound, message.Direction)

		conversation, err := repos.Conversations().GetByPhoneNumber(ctx, "15550002222")
		require.NoError(t, err)
		require.NotNil(t, conversation)
		assert.Equal(t, "Sam", conversation.ContactName)
		assert.Equal(t, 1, conversation.UnreadCount)
		assert.Equal(t, domain.ConversationStatusActive, conversation.Status)
	})

	t.Run("reuses conversation on later messages", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		service := NewService(repos, &mockSender{}, &mockReplier{}, nil, nil)

		_, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hello"))
		require.NoError(t, err)
		_, err = service.Ingest(ctx, inbound("wamid.2", "15550002222", "again"))
		require.NoError(t, err)

		conversations, err := repos.Conversations().List(ctx, 10, 0)
		require.NoError(t, err)
		assert.Len(t, conversations, 1)
		assert.Equal(t, 2, conversations[0].UnreadCount)
		assert.Equal(t, 2, repos.MessageCount())
	})

	t.Run("drops duplicate provider message id", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		service := NewService(repos, &mockSender{}, &mockReplier{}, nil, nil)

		first, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hello"))
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hello"))
		require.NoError(t, err)
		assert.Nil(t, second)
		assert.Equal(t, 1, repos.MessageCount())

		conversation, err := repos.Conversations().GetByPhoneNumber(ctx, "15550002222")
		require.NoError(t, err)
		assert.Equal(t, 1, conversation.UnreadCount)
	})

	t.Run("rejects message without provider id", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		service := NewService(repos, &mockSender{}, &mockReplier{}, nil, nil)

		_, err := service.Ingest(ctx, &InboundMessage{From: "15550002222", Content: "x", Timestamp: time.Now()})
		require.Error(t, err)
	})

	t.Run("marker dedups across deliveries", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		marker := newFakeSeenMarker()
		service := NewService(repos, &mockSender{}, &mockReplier{}, marker, nil)

		first, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hello"))
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.True(t, marker.seen["wamid.1"])

		second, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hello"))
		require.NoError(t, err)
		assert.Nil(t, second)
		assert.Equal(t, 1, repos.MessageCount())
	})

	t.Run("failed persistence does not claim the provider id", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		marker := newFakeSeenMarker()
		service := NewService(repos, &mockSender{}, &mockReplier{}, marker, nil)

		repos.FailNextMessageCreate(fmt.Errorf("connection reset"))
		_, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hello"))
		require.Error(t, err)
		assert.False(t, marker.seen["wamid.1"])

		// The provider redelivers; the retry must store the message.
		stored, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hello"))
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, 1, repos.MessageCount())
		assert.True(t, marker.seen["wamid.1"])
	})
}

func TestAutoReply(t *testing.T) {
	ctx := context.Background()
	prompt := "You are a support agent."

	seedAssigned := func(repos *repositorytest.FakeManager) {
		repos.SeedAgent(&domain.Agent{
			ID:             "ai-1",
			Name:           "Ava",
			Type:           domain.AgentTypeAI,
			PromptTemplate: &prompt,
		})
		agentID := "ai-1"
		repos.SeedConversation(&domain.Conversation{
			ID:          "conv-1",
			PhoneNumber: "15550002222",
			Status:      domain.ConversationStatusActive,
			AIAgentID:   &agentID,
		})
	}

	t.Run("replies when agent assigned and auto-reply enabled", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		seedAssigned(repos)
		sender := &mockSender{}
		replier := &mockReplier{replyFunc: func(ctx context.Context, persona string, history []adapters.ChatTurn) (string, error) {
			assert.Equal(t, prompt, persona)
			return "How can I help?", nil
		}}
		service := NewService(repos, sender, replier, nil, nil)

		_, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hi"))
		require.NoError(t, err)

		assert.Equal(t, 1, replier.calls)
		assert.Equal(t, 1, sender.textCalls)
		assert.Equal(t, "15550002222", sender.lastTo)
		assert.Equal(t, "How can I help?", sender.lastBody)

		messages := repos.AllMessages()
		require.Len(t, messages, 2)
		outbound := messages[1]
		assert.Equal(t, domain.DirectionOutbound, outbound.Direction)
		assert.True(t, outbound.AIGenerated)
	})

	t.Run("no reply without assigned agent", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		repos.SeedConversation(&domain.Conversation{
			ID:          "conv-1",
			PhoneNumber: "15550002222",
			Status:      domain.ConversationStatusActive,
		})
		sender := &mockSender{}
		replier := &mockReplier{}
		service := NewService(repos, sender, replier, nil, nil)

		_, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hi"))
		require.NoError(t, err)
		assert.Zero(t, replier.calls)
		assert.Zero(t, sender.textCalls)
	})

	t.Run("no reply when auto-reply disabled", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		seedAssigned(repos)
		repos.SeedSettings(&domain.Settings{ID: domain.SettingsID, AutoReplyEnabled: false})
		replier := &mockReplier{}
		service := NewService(repos, &mockSender{}, replier, nil, nil)

		_, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hi"))
		require.NoError(t, err)
		assert.Zero(t, replier.calls)
	})

	t.Run("empty model reply is not sent", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		seedAssigned(repos)
		sender := &mockSender{}
		replier := &mockReplier{replyFunc: func(ctx context.Context, persona string, history []adapters.ChatTurn) (string, error) {
			return "", nil
		}}
		service := NewService(repos, sender, replier, nil, nil)

		_, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hi"))
		require.NoError(t, err)
		assert.Equal(t, 1, replier.calls)
		assert.Zero(t, sender.textCalls)
	})

	t.Run("generation failure does not fail ingest", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		seedAssigned(repos)
		replier := &mockReplier{replyFunc: func(ctx context.Context, persona string, history []adapters.ChatTurn) (string, error) {
			return "", fmt.Errorf("model unavailable")
		}}
		service := NewService(repos, &mockSender{}, replier, nil, nil)

		message, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hi"))
		require.NoError(t, err)
		require.NotNil(t, message)
		assert.Equal(t, 1, repos.MessageCount())
	})

	t.Run("history maps directions to model roles", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		seedAssigned(repos)
		repos.SeedMessage(&domain.Message{
			ID:             "m1",
			ConversationID: "conv-1",
			Direction:      domain.DirectionOutbound,
			Content:        "Welcome!",
			Timestamp:      time.Now().Add(-time.Minute),
		})
		replier := &mockReplier{}
		service := NewService(repos, &mockSender{}, replier, nil, nil)

		_, err := service.Ingest(ctx, inbound("wamid.1", "15550002222", "hi"))
		require.NoError(t, err)
		require.Len(t, replier.lastTurns, 2)
		assert.Equal(t, "model", replier.lastTurns[0].Role)
		assert.Equal(t, "user", replier.lastTurns[1].Role)
	})
}

func TestSend(t *testing.T) {
	ctx := context.Background()

	t.Run("sends and stores outbound message", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		repos.SeedConversation(&domain.Conversation{
			ID:          "conv-1",
			PhoneNumber: "15550002222",
			Status:      domain.ConversationStatusActive,
		})
		sender := &mockSender{}
		service := NewService(repos, sender, nil, nil, nil)

		message, err := service.Send(ctx, "conv-1", &domain.SendMessageRequest{Content: "on our way"})
		require.NoError(t, err)
		assert.Equal(t, domain.DirectionOutbound, message.Direction)
		assert.False(t, message.AIGenerated)
		require.NotNil(t, message.ProviderMessageID)
		assert.Equal(t, "wamid.out", *message.ProviderMessageID)
		assert.Equal(t, "15550002222", sender.lastTo)
	})

	t.Run("provider failure stores nothing", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		repos.SeedConversation(&domain.Conversation{
			ID:          "conv-1",
			PhoneNumber: "15550002222",
			Status:      domain.ConversationStatusActive,
		})
		sender := &mockSender{sendTextFunc: func(ctx context.Context, to, body string) (string, error) {
			return "", fmt.Errorf("api error")
		}}
		service := NewService(repos, sender, nil, nil, nil)

		_, err := service.Send(ctx, "conv-1", &domain.SendMessageRequest{Content: "hello"})
		require.Error(t, err)
		assert.Zero(t, repos.MessageCount())
	})

	t.Run("unknown conversation fails", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		service := NewService(repos, &mockSender{}, nil, nil, nil)

		_, err := service.Send(ctx, "missing", &domain.SendMessageRequest{Content: "hello"})
		require.Error(t, err)
	})
}

func TestSendTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("requires approved template", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		repos.SeedTemplate(&domain.Template{
			ID:       "tpl-1",
			Name:     "welcome",
			Content:  "Hi {{name}}",
			Status:   domain.TemplateStatusPending,
			Language: "en",
		})
		service := NewService(repos, &mockSender{}, nil, nil, nil)

		_, err := service.SendTemplate(ctx, "15550002222", "tpl-1", nil)
		require.Error(t, err)
	})

	t.Run("creates conversation for new recipient", func(t *testing.T) {
		repos := repositorytest.NewFakeManager()
		repos.SeedTemplate(&domain.Template{
			ID:       "tpl-1",
			Name:     "welcome",
			Content:  "Hi {{name}}",
			Status:   domain.TemplateStatusApproved,
			Language: "en",
		})
		service := NewService(repos, &mockSender{}, nil, nil, nil)

		message, err := service.SendTemplate(ctx, "15550002222", "tpl-1", []string{"Sam"})
		require.NoError(t, err)
		require.NotNil(t, message)

		conversation, err := repos.Conversations().GetByPhoneNumber(ctx, "15550002222")
		require.NoError(t, err)
		require.NotNil(t, conversation)
	})
}
