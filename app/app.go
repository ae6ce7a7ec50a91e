package app

import (
	"database/sql"

	"github.com/bouvin87/SystemBySelections-sub001/config"
	"github.com/go-chi/oauth"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
}
