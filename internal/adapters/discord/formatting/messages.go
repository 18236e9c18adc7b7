package formatting

import (
	"fmt"

	"github.com/google/uuid"
)

func MsgLevelUp(player uuid.UUID, oldLevel, newLevel int, group string) string {
	msg := fmt.Sprintf("`%s` advanced from level %d to %d", player, oldLevel, newLevel)
	if group != "" {
		msg += fmt.Sprintf(" (**%s**)", group)
	}
	return msg
}
