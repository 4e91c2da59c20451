package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeyIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"uid-9", "uid-10"},
		{"abc", "abd"},
		{"same", "same"},
	}
	for _, p := range pairs {
		assert.Equal(t, ConversationKey(p[0], p[1]), ConversationKey(p[1], p[0]),
			"key for (%s,%s) must not depend on argument order", p[0], p[1])
	}
}

func TestConversationKeyOrdersLexicographically(t *testing.T) {
	assert.Equal(t, "alice_bob", ConversationKey("bob", "alice"))
	assert.Equal(t, "alice_bob", ConversationKey("alice", "bob"))
	// Lexicographic, not numeric: "10" sorts before "9".
	assert.Equal(t, "10_9", ConversationKey("9", "10"))
}

func TestConversationKeyDistinctPairsDiffer(t *testing.T) {
	assert.NotEqual(t, ConversationKey("alice", "bob"), ConversationKey("alice", "carol"))
	assert.NotEqual(t, ConversationKey("alice", "bob"), ConversationKey("bob", "carol"))
}

func TestScopeKeys(t *testing.T) {
	assert.Equal(t, "global", GlobalScope().Key())
	assert.Equal(t, "private:alice_bob", PrivateScope("alice_bob").Key())
	assert.Equal(t, "group:g1", GroupScope("g1").Key())
}
