package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/mkowalski/staffrota/internal/config"
	"github.com/mkowalski/staffrota/pkg/clients/holidayclient"
	"github.com/mkowalski/staffrota/pkg/core/services"
	"github.com/mkowalski/staffrota/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database *postgres.DB
	Holidays *holidayclient.Client
	Notifier services.Notifier
	Logger   *zap.Logger
	Ctx      context.Context
}
