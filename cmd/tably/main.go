package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tably/internal/clock"
	"github.com/smallbiznis/tably/internal/config"
	"github.com/smallbiznis/tably/internal/migration"
	"github.com/smallbiznis/tably/internal/observability"
	"github.com/smallbiznis/tably/internal/server"
	"github.com/smallbiznis/tably/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Schema and reference data
		migration.Module,

		// HTTP surface plus all domain modules
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
