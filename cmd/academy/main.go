package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/academy/internal/clock"
	"github.com/smallbiznis/academy/internal/config"
	"github.com/smallbiznis/academy/internal/migration"
	"github.com/smallbiznis/academy/internal/observability"
	"github.com/smallbiznis/academy/internal/server"
	"github.com/smallbiznis/academy/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// HTTP and the enrollment domains it serves
		server.Module,

		migration.Module,
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
