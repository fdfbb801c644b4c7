package server

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pcanals/quorum/pkg/a2a/types"
	qerrors "github.com/pcanals/quorum/pkg/errors"
)

// ResponseMessage builds an agent-authored message from an executor output.
func ResponseMessage(output any, contextID, taskID string) *types.Message {
	if msg, ok := output.(*types.Message); ok {
		return normalizeMessage(msg, contextID, taskID)
	}

	message := types.NewTextMessage(types.RoleAgent, fmt.Sprint(output))
	message.ContextID = contextID
	message.TaskID = taskID
	return message
}

// ValidateMessage ensures required message fields are present.
func ValidateMessage(message *types.Message) error {
	if message == nil {
		return qerrors.New(qerrors.CodeInvalidParams, "message is required", nil)
	}
	if message.MessageID == "" {
		return qerrors.New(qerrors.CodeInvalidParams, "messageId is required", nil)
	}
	if len(message.Parts) == 0 {
		return qerrors.New(qerrors.CodeInvalidParams, "message parts are required", nil)
	}
	for i, part := range message.Parts {
		if err := validatePart(part); err != nil {
			return qerrors.Newf(qerrors.CodeInvalidParams, "part %d: %v", i, err)
		}
	}
	switch message.Role {
	case types.RoleUser, types.RoleAgent, types.RoleSystem:
		return nil
	default:
		return qerrors.Newf(qerrors.CodeInvalidParams, "unknown role %q", message.Role)
	}
}

// validatePart checks that the payload field matches the declared kind.
func validatePart(part types.Part) error {
	switch part.Kind {
	case types.PartKindText:
		if part.Text == "" {
			return fmt.Errorf("text part is empty")
		}
	case types.PartKindFile:
		if part.File == nil {
			return fmt.Errorf("file part has no file")
		}
	case types.PartKindData:
		if part.Data == nil {
			return fmt.Errorf("data part has no data")
		}
	case types.PartKindArtifact:
		if part.Artifact == nil {
			return fmt.Errorf("artifact part has no artifact")
		}
	default:
		return fmt.Errorf("unknown part kind %q", part.Kind)
	}
	return nil
}

func normalizeMessage(message *types.Message, contextID, taskID string) *types.Message {
	message = message.Clone()
	if message.MessageID == "" {
		message.MessageID = uuid.NewString()
	}
	if contextID != "" {
		message.ContextID = contextID
	}
	if taskID != "" {
		message.TaskID = taskID
	}
	if message.Role == "" {
		message.Role = types.RoleAgent
	}
	return message
}
