package utils_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/anggasct/urbanflow/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	codes := []utils.ErrorCode{
		utils.ErrCodeNone,
		utils.ErrCodeInvalidPhase,
		utils.ErrCodeTransitionNotAllowed,
		utils.ErrCodeInvalidConfiguration,
		utils.ErrCodeRunFinished,
	}
	for i, code := range codes {
		assert.Equal(t, i, int(code))
	}
}

func TestConfigurationError(t *testing.T) {
	err := utils.NewConfigurationError("FixedTimeController", "green ticks must be positive")

	assert.Equal(t, "configuration error in FixedTimeController: green ticks must be positive", err.Error())
	assert.True(t, utils.IsConfigurationError(err))
	assert.False(t, utils.IsPhaseError(err))
	assert.Equal(t, utils.ErrCodeInvalidConfiguration, utils.GetErrorCode(err))
}

func TestPhaseError(t *testing.T) {
	err := utils.NewInvalidPhaseError("NS_RED")

	assert.Contains(t, err.Error(), "NS_RED")
	assert.True(t, utils.IsPhaseError(err))
	assert.Equal(t, utils.ErrCodeInvalidPhase, utils.GetErrorCode(err))
}

func TestTransitionError(t *testing.T) {
	err := utils.NewTransitionNotAllowedError("NS_GREEN", "EW_GREEN")

	assert.Equal(t, "transition error [NS_GREEN->EW_GREEN]: transition not allowed", err.Error())
	assert.True(t, utils.IsTransitionError(err))
	assert.Equal(t, utils.ErrCodeTransitionNotAllowed, utils.GetErrorCode(err))
}

func TestRunError(t *testing.T) {
	err := utils.NewRunFinishedError("Step")

	assert.True(t, utils.IsRunError(err))
	assert.Equal(t, utils.ErrCodeRunFinished, utils.GetErrorCode(err))
}

func TestGetErrorCode_Unknown(t *testing.T) {
	assert.Equal(t, utils.ErrCodeNone, utils.GetErrorCode(errors.New("plain")))
	assert.Equal(t, utils.ErrCodeNone, utils.GetErrorCode(nil))

	wrapped := fmt.Errorf("load: %w", utils.NewConfigurationError("Config", "bad"))
	var cfgErr *utils.ConfigurationError
	assert.True(t, errors.As(wrapped, &cfgErr))
	assert.Equal(t, "Config", cfgErr.Component)
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
		code utils.ErrorCode
	}{
		{"configuration", utils.NewConfigurationError("FixedTimeController", "green_ticks must be positive"), utils.IsConfigurationError, utils.ErrCodeInvalidConfiguration},
		{"phase", utils.NewInvalidPhaseError("NS_RED"), utils.IsPhaseError, utils.ErrCodeInvalidPhase},
		{"transition", utils.NewTransitionNotAllowedError("NS_GREEN", "EW_GREEN"), utils.IsTransitionError, utils.ErrCodeTransitionNotAllowed},
		{"run", utils.NewRunFinishedError("Step"), utils.IsRunError, utils.ErrCodeRunFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", tt.err))

			assert.True(t, tt.is(wrapped))
			assert.Equal(t, tt.code, utils.GetErrorCode(wrapped))
		})
	}

	assert.False(t, utils.IsConfigurationError(fmt.Errorf("outer: %w", errors.New("plain"))))
}
