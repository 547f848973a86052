package conversation

import (
	"context"
	"fmt"

	"hotel-bot/internal/models"
)

func (e *Engine) runCommand(ctx context.Context, key models.SessionKey, firstName string, cmd models.Command) {
	e.logger.Infow("Command", "session", key.String(), "command", cmd)

	switch cmd {
	case models.CommandStart:
		e.clear(ctx, key)
		e.send(ctx, key.ChatID, Reply{Text: welcomeText(firstName), Markup: MarkupStartMenu})
	case models.CommandHelp:
		e.send(ctx, key.ChatID, Reply{Text: helpText(), Markup: MarkupStartMenu})
	case models.CommandCancel:
		e.clear(ctx, key)
		e.send(ctx, key.ChatID, Reply{Text: msgCanceled, Markup: MarkupRemove})
	case models.CommandHistory:
		e.startHistory(ctx, key)
	default:
		if cmd.IsSearch() {
			e.startSearch(ctx, key, cmd)
		}
	}
}

// startSearch replaces any previous session with a fresh one for cmd and
// opens its history record.
func (e *Engine) startSearch(ctx context.Context, key models.SessionKey, cmd models.Command) {
	e.clear(ctx, key)
	e.send(ctx, key.ChatID, Reply{Text: fmt.Sprintf(msgSelected, cmd.Shortcut())})

	historyID, err := e.history.Create(ctx, key.UserID, cmd.Shortcut())
	if err != nil {
		e.logger.Errorw("Failed to create history record", "session", key.String(), "error", err)
		e.send(ctx, key.ChatID, Reply{Text: msgFailure})
		return
	}

	s := models.NewSearchSession(cmd, historyID)
	if err := e.store.Put(ctx, key, s); err != nil {
		e.logger.Errorw("Failed to save session", "session", key.String(), "error", err)
		e.send(ctx, key.ChatID, Reply{Text: msgFailure})
		return
	}
	e.prompt(ctx, key.ChatID, s)
}
