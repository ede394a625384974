package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreUnmarshalKeepsUserOrder(t *testing.T) {
	raw := `{"zoe": [{"question": "a", "answer": "b"}], "ann": [], "mike": [{"question": "c", "answer": "d"}]}`

	var s Store
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.Equal(t, []string{"zoe", "ann", "mike"}, s.Users())
	assert.Equal(t, 2, s.Total())
	assert.Equal(t, 0, s.Len("ann"))
	assert.Equal(t, "c", s.Deck("mike")[0].Question)
}

func TestStoreMarshalRoundTrip(t *testing.T) {
	s := NewStore()
	s.Append("zoe", Card{Question: "Stolica Polski?", Answer: "Warszawa", ID: "1"})
	s.Append("ann", Card{Question: "<b>2+2</b> & co?", Answer: "4", ID: "2"})
	s.Append("ann")
	s.Append("bob")

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var back Store
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []string{"zoe", "ann", "bob"}, back.Users())
	assert.Equal(t, s.Deck("ann"), back.Deck("ann"))
	assert.Equal(t, s.Deck("zoe"), back.Deck("zoe"))
	assert.Equal(t, 0, back.Len("bob"))
}

func TestStoreMarshalEmptyDeckIsArray(t *testing.T) {
	s := NewStore()
	s.Append("ann")

	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"ann":[]}`, string(b))
}

func TestStoreUnmarshalRejectsNonObject(t *testing.T) {
	var s Store
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"ann": "nope"}`), &s))
}

func TestStoreReplaceAndRemove(t *testing.T) {
	s := NewStore()
	s.Append("ann",
		Card{Question: "q0", Answer: "a0", ID: "a"},
		Card{Question: "q1", Answer: "a1", ID: "b"},
		Card{Question: "q2", Answer: "a2", ID: "c"},
	)

	require.NoError(t, s.Replace("ann", 1, Card{Question: "Q1", Answer: "A1", ID: "b"}))
	assert.Equal(t, "Q1", s.Deck("ann")[1].Question)

	removed, err := s.Remove("ann", 0)
	require.NoError(t, err)
	assert.Equal(t, "a", removed.ID)
	assert.Equal(t, 0, s.IndexOf("ann", "b"))
	assert.Equal(t, 1, s.IndexOf("ann", "c"))
	assert.Equal(t, -1, s.IndexOf("ann", "a"))

	_, err = s.Remove("ann", 5)
	assert.True(t, errors.Is(err, ErrCardNotFound))
	err = s.Replace("nobody", 0, Card{})
	assert.True(t, errors.Is(err, ErrCardNotFound))
}

func TestAssignMissingIDs(t *testing.T) {
	s := NewStore()
	s.Append("ann", Card{Question: "q", Answer: "a"}, Card{Question: "q", Answer: "a", ID: "keep"})

	assert.Equal(t, 1, s.AssignMissingIDs())
	deck := s.Deck("ann")
	assert.NotEmpty(t, deck[0].ID)
	assert.Equal(t, "keep", deck[1].ID)
	assert.Equal(t, 0, s.AssignMissingIDs())
}

func TestNormalizeUsername(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"Methew", "methew"},
		{"  ANN  ", "ann"},
		{"\tbob\n", "bob"},
		{"   ", ""},
	}
	for _, tc := range testCases {
		if got := NormalizeUsername(tc.in); got != tc.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewCardValidation(t *testing.T) {
	_, err := NewCard("2+2?", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "answer")

	c, err := NewCard("2+2?", "4")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
}

func TestNewCardIDIsIncreasing(t *testing.T) {
	a := NewCardID()
	b := NewCardID()
	assert.Less(t, a, b)
}
