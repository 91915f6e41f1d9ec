package gate

import (
	"go.uber.org/zap"

	"codecalm/internal/models"
)

// Presenter renders interventions to the user. Implementations decide the
// surface: editor popup, desktop notification, plain log output.
type Presenter interface {
	// ShowIntervention displays an intervention together with the actions
	// the user may take in response.
	ShowIntervention(iv models.Intervention, options []string)
	// ShowNotification displays a lightweight, non-interactive message.
	ShowNotification(title, message string)
}

// LogPresenter writes interventions to the structured log. It is the
// default presenter when no UI surface is attached.
type LogPresenter struct {
	log *zap.Logger
}

func NewLogPresenter(log *zap.Logger) *LogPresenter {
	return &LogPresenter{log: log.Named("presenter")}
}

func (p *LogPresenter) ShowIntervention(iv models.Intervention, options []string) {
	p.log.Info("intervention",
		zap.String("id", iv.ID),
		zap.String("type", iv.Type.String()),
		zap.String("title", iv.Title),
		zap.String("message", iv.Message),
		zap.Strings("options", options))
}

func (p *LogPresenter) ShowNotification(title, message string) {
	p.log.Info("notification",
		zap.String("title", title),
		zap.String("message", message))
}
