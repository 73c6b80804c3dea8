package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCards(t *testing.T) {
	input := `kind,text,pick,deck
prompt,"What's that smell? ____",,base
black,"____ plus ____ equals trouble.",2,base
response,A disappointing birthday party.,,base
white,  Grandpa's secret recipe  ,,
response,,,
`
	cards, err := ReadCards(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cards, 4)

	assert.Equal(t, "prompt", cards[0].Kind)
	assert.Equal(t, "base", cards[0].Deck)
	assert.Equal(t, 2, cards[1].Pick)
	assert.Equal(t, "response", cards[3].Kind)
	assert.Equal(t, "Grandpa's secret recipe", cards[3].Text)
	assert.Equal(t, "approved", cards[2].Status)
	assert.Equal(t, CardID("base", "prompt", cards[0].Text), cards[0].ID)
	assert.NotEqual(t, cards[2].ID, cards[3].ID)
}

func TestReadCardsRejectsUnknownKind(t *testing.T) {
	_, err := ReadCards(strings.NewReader("kind,text\nblue,hello\n"))
	assert.ErrorContains(t, err, "unknown card kind")

	_, err = ReadCards(strings.NewReader("kind,text,pick\nprompt,hello,two\n"))
	assert.ErrorContains(t, err, "invalid pick")
}

func TestCardIDIsStable(t *testing.T) {
	assert.Equal(t, CardID("d", "prompt", "x"), CardID("d", "prompt", "x"))
	assert.NotEqual(t, CardID("d", "prompt", "x"), CardID("d", "response", "x"))
	assert.NotEqual(t, CardID("", "prompt", "x"), CardID("d", "prompt", "x"))
}
