package contact_test

import (
	"encoding/json"
	"testing"

	"github.com/rpggio/calldesk/internal/domain/contact"
	"github.com/stretchr/testify/require"
)

func TestPatch_UnmarshalTriState(t *testing.T) {
	var patch contact.Patch
	err := json.Unmarshal([]byte(`{"comment":"rappeler","dateRappel":null,"isCurrentlyInCall":false}`), &patch)
	require.NoError(t, err)

	require.Equal(t, contact.Present, patch.Comment.State)
	require.Equal(t, "rappeler", patch.Comment.Value)
	require.Equal(t, contact.Null, patch.ReminderDate.State)
	require.Equal(t, contact.Present, patch.InCall.State)
	require.False(t, patch.InCall.Value)
	require.Equal(t, contact.Unset, patch.Email.State)
	require.Equal(t, contact.Unset, patch.PhoneNumber.State)
	require.False(t, patch.IsEmpty())
}

func TestPatch_EmptyObject(t *testing.T) {
	var patch contact.Patch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &patch))
	require.True(t, patch.IsEmpty())
}

func TestPatch_RejectsWrongType(t *testing.T) {
	var patch contact.Patch
	err := json.Unmarshal([]byte(`{"isCurrentlyInCall":"yes"}`), &patch)
	require.Error(t, err)
}
