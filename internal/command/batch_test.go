package command

import (
	"strings"
	"testing"

	apperrors "redisgate/cli/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBatch(t *testing.T) {
	eleven := make([]string, 11)
	for i := range eleven {
		eleven[i] = "PING"
	}

	tests := []struct {
		name     string
		commands []string
		wantErr  string
	}{
		{name: "single ping", commands: []string{"PING"}},
		{name: "ten commands", commands: eleven[:10]},
		{name: "blank command is not a batch failure", commands: []string{"PING", "  "}},
		{name: "empty batch", commands: nil, wantErr: MsgEmptyBatch},
		{name: "eleven commands", commands: eleven, wantErr: MsgBatchTooBig},
		{name: "denied anywhere", commands: []string{"GET a", "flushall", "GET b"}, wantErr: MsgDangerous},
		{name: "command at limit", commands: []string{"GET " + strings.Repeat("k", MaxCommandLength-4)}},
		{name: "command over limit", commands: []string{"GET " + strings.Repeat("k", MaxCommandLength-3)}, wantErr: MsgTooLong},
		{
			name:     "all rules accumulate",
			commands: append(append([]string{}, eleven...), "CONFIG SET x "+strings.Repeat("y", MaxCommandLength)),
			wantErr:  MsgBatchTooBig + ", " + MsgDangerous + ", " + MsgTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified, err := ValidateBatch(tt.commands)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Nil(t, classified)
				assert.Equal(t, apperrors.Validation, apperrors.KindOf(err))
				assert.Equal(t, tt.wantErr, apperrors.Message(err))
				return
			}
			require.NoError(t, err)
			require.Len(t, classified, len(tt.commands))
			for i, c := range classified {
				assert.Equal(t, tt.commands[i], c.Raw)
			}
		})
	}
}

func TestValidateBatch_DeniedMessageMentionsNotAllowed(t *testing.T) {
	_, err := ValidateBatch([]string{"FLUSHALL"})
	require.Error(t, err)
	assert.Contains(t, apperrors.Message(err), "not allowed")
}

func TestValidateBatch_TooManyMessage(t *testing.T) {
	cmds := make([]string, 11)
	for i := range cmds {
		cmds[i] = "GET k"
	}
	_, err := ValidateBatch(cmds)
	assert.Contains(t, apperrors.Message(err), "Maximum 10 commands")
}
