package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLink(t *testing.T) {
	url, ok := DetectLink("confira https://example.com/prova e me fala")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/prova", url)

	_, ok = DetectLink("sem link nenhum aqui")
	assert.False(t, ok)

	url, ok = DetectLink("http://a.br https://b.br")
	assert.True(t, ok)
	assert.Equal(t, "http://a.br", url, "first URL wins")
}

func TestIsReadBy(t *testing.T) {
	private := Message{SenderID: "alice", Read: true}
	assert.True(t, private.IsReadBy("bob"))

	group := Message{SenderID: "alice", ReadBy: map[string]bool{"bob": true}}
	assert.True(t, group.IsReadBy("bob"))
	assert.False(t, group.IsReadBy("carol"))

	unread := Message{SenderID: "alice"}
	assert.False(t, unread.IsReadBy("bob"))
}

func TestMessageValidate(t *testing.T) {
	valid := &Message{SenderID: "alice", Body: "oi", Type: MessageTypeText}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&Message{Body: "oi", Type: MessageTypeText}).Validate())
	assert.Error(t, (&Message{SenderID: "alice", Type: "sticker"}).Validate())
	assert.Error(t, (&Message{SenderID: "alice", Type: MessageTypeText, LinkPreview: &LinkPreview{}}).Validate())
}

func TestStubPreview(t *testing.T) {
	p := StubPreview("https://www.questoes.com.br/edital/2026?x=1")
	assert.Equal(t, "www.questoes.com.br", p.Domain)
	assert.Equal(t, "website", p.Type)
}
